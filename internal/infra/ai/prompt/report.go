package prompt

import "fmt"

// GetSystemPrompt provides strict directions and schema for JSON output.
func GetSystemPrompt() string {
	return `You are a senior media-forensics analyst. You must produce one valid JSON object only (no markdown, no commentary) that follows the schema below. Do not include code fences.

Requirements:
- Output must be a single JSON object.
- verdict must echo the verdict from the input check: REAL, FAKE or UNCERTAIN.
- confidence_percent is an integer 0-100 derived from the check confidence.
- summary explains the verdict for a non-technical reader in 2-4 sentences.
- caveats lists the limits of automated detection relevant to this media type.
- Never claim certainty the underlying detectors did not provide.

Schema (example with empty values):
{
  "verdict": "<REAL|FAKE|UNCERTAIN>",
  "confidence_percent": 0,
  "headline": "<string>",
  "summary": "<string>",
  "caveats": ["<string>"],
  "advice": "<string>"
}`
}

// GetUserPrompt builds a compact user message around the stored check.
func GetUserPrompt(checkJSON string) string {
	return fmt.Sprintf("Write the report for this analysis check and respond with the JSON per schema. Check: %s", checkJSON)
}

// Report matches the schema used by the system prompt.
type Report struct {
	Verdict           string   `json:"verdict"`
	ConfidencePercent int      `json:"confidence_percent"`
	Headline          string   `json:"headline"`
	Summary           string   `json:"summary"`
	Caveats           []string `json:"caveats"`
	Advice            string   `json:"advice"`
}
