package analysis

import "math"

// Verdict enum
type Verdict string

const (
	VerdictReal      Verdict = "REAL"
	VerdictFake      Verdict = "FAKE"
	VerdictUncertain Verdict = "UNCERTAIN"
)

// MediaType enum, fixed once per request
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
	MediaText  MediaType = "text"
)

// Model identifies the provider/pipeline that produced a result
type Model string

const (
	ModelSightengine      Model = "sightengine"
	ModelSightengineVideo Model = "sightengine_video_pipeline"
	ModelResemble         Model = "resemble_detect"
	ModelSapling          Model = "sapling"
	ModelHFImage          Model = "hf_image_inference"
	ModelHFAudio          Model = "hf_audio_inference"
)

// Result is the unified analysis outcome. Value object, built once per
// request; ProcessingMS is filled in by the caller after the round trip.
type Result struct {
	Verdict      Verdict   `json:"verdict"`
	Confidence   float64   `json:"confidence"`
	Model        Model     `json:"model_used"`
	Explanation  string    `json:"explanation"`
	MediaType    MediaType `json:"media_type"`
	ProcessingMS int64     `json:"processing_ms"`
}

// Uncertain builds the degraded verdict used whenever a provider cannot
// give a usable answer (timeout, cold start, unexpected payload).
func Uncertain(reason string, model Model, mediaType MediaType) *Result {
	return &Result{
		Verdict:     VerdictUncertain,
		Confidence:  0.5,
		Model:       model,
		Explanation: reason,
		MediaType:   mediaType,
	}
}

// Round4 rounds a confidence score to 4 decimal places.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
