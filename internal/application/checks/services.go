package checks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/mediaverify/internal/application"
	analyzeapp "github.com/bryanwahyu/mediaverify/internal/application/analyze"
	"github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	domain "github.com/bryanwahyu/mediaverify/internal/domain/checks"
)

// Service implements the check use-cases. Safe for concurrent use.
type Service struct {
	Repo     domain.Repository
	Users    domain.UserRepository
	Router   *analyzeapp.Service
	Evidence domain.EvidenceStore
	Failures domain.FailureLog
	Clock    application.Clock

	// FreeDailyLimit caps checks per user per day; premium users bypass it.
	FreeDailyLimit int
}

// Command to run one analysis request
type RunCheckCommand struct {
	TenantID    string
	UserID      int64
	Username    string
	FirstName   string
	ContentType string
	Filename    string
	TextContent string
	Data        []byte
}

// RunCheck verifies the quota, classifies and routes the content, persists
// the outcome and uploads the analyzed bytes as evidence. Typed routing
// errors pass through untouched so the HTTP layer can map them.
func (s *Service) RunCheck(ctx context.Context, cmd RunCheckCommand) (*domain.Check, error) {
	now := s.Clock.Now()

	user, err := s.Users.GetOrCreate(ctx, cmd.UserID, cmd.Username, cmd.FirstName)
	if err != nil {
		return nil, err
	}
	if err := s.Users.ResetDailyIfNeeded(ctx, cmd.UserID, now); err != nil {
		return nil, err
	}

	if !user.IsPremium && s.FreeDailyLimit > 0 {
		used, err := s.Users.ChecksToday(ctx, cmd.UserID, now)
		if err != nil {
			return nil, err
		}
		if used >= s.FreeDailyLimit {
			return nil, domain.ErrQuotaExceeded
		}
	}

	mediaType, err := s.Router.DetectType(cmd.ContentType, cmd.Filename, cmd.TextContent)
	if err != nil {
		return nil, err
	}

	id := domain.CheckID(uuid.New().String())

	start := time.Now()
	result, err := s.Router.Route(ctx, mediaType, cmd.Data, cmd.TextContent)
	if err != nil {
		s.logFailure(cmd.TenantID, string(id), err)
		return nil, err
	}
	result.ProcessingMS = time.Since(start).Milliseconds()

	check := &domain.Check{
		ID:            id,
		TenantID:      cmd.TenantID,
		UserID:        cmd.UserID,
		MediaType:     result.MediaType,
		Verdict:       result.Verdict,
		Confidence:    result.Confidence,
		Model:         result.Model,
		Explanation:   result.Explanation,
		FileSizeBytes: int64(len(cmd.Data)),
		ProcessingMS:  result.ProcessingMS,
		CreatedAt:     now,
	}

	// Evidence upload is best effort; a storage hiccup must not void the verdict.
	if s.Evidence != nil && len(cmd.Data) > 0 {
		key := fmt.Sprintf("%s/%s/%s", cmd.TenantID, mediaType, id)
		url, err := s.Evidence.UploadBytes(ctx, key, cmd.Data, contentTypeFor(mediaType, cmd.ContentType))
		if err != nil {
			log.Printf("evidence upload failed for check %s: %v", id, err)
		} else {
			check.EvidenceURL = url
		}
	}

	if err := s.Repo.Save(ctx, check); err != nil {
		return nil, err
	}
	if _, err := s.Users.IncrementChecks(ctx, cmd.UserID, now); err != nil {
		log.Printf("quota increment failed for user %d: %v", cmd.UserID, err)
	}

	return check, nil
}

// logFailure records a provider failure row; persistence errors here are
// only logged.
func (s *Service) logFailure(tenant, checkID string, cause error) {
	if s.Failures == nil {
		return
	}
	f := &domain.ProviderFailure{
		TenantID:  tenant,
		CheckID:   checkID,
		Phase:     "route",
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	}
	var extErr *analysis.ExternalServiceError
	if errors.As(cause, &extErr) {
		f.Service = extErr.Service
	}
	if err := s.Failures.Save(context.Background(), f); err != nil {
		log.Printf("failure log write failed for check %s: %v", checkID, err)
	}
}

// Latest returns the N most recent checks for a tenant
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Check, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Get returns one check by id
func (s *Service) Get(ctx context.Context, tenant string, id domain.CheckID) (*domain.Check, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// ListFailures returns the provider failures recorded for one check.
// Deployments without a failure log get an empty list.
func (s *Service) ListFailures(ctx context.Context, tenant string, checkID string, limit int) ([]*domain.ProviderFailure, error) {
	if s.Failures == nil {
		return []*domain.ProviderFailure{}, nil
	}
	return s.Failures.ListByCheck(ctx, tenant, checkID, limit)
}

// Paginate returns a filtered page of checks
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize, filters)
}

// Summary aggregates verdicts over the last N days
func (s *Service) Summary(ctx context.Context, tenant string, sinceDays int) (map[string]any, error) {
	counts, err := s.Repo.Summary(ctx, tenant, sinceDays)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_checks": counts.Total,
		"real":         counts.Real,
		"fake":         counts.Fake,
		"uncertain":    counts.Uncertain,
	}, nil
}

func contentTypeFor(mediaType analysis.MediaType, declared string) string {
	if declared != "" {
		return declared
	}
	switch mediaType {
	case analysis.MediaImage:
		return "image/jpeg"
	case analysis.MediaAudio:
		return "audio/ogg"
	case analysis.MediaVideo:
		return "video/mp4"
	case analysis.MediaText:
		return "text/plain"
	}
	return "application/octet-stream"
}
