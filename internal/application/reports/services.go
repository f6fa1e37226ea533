package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/mediaverify/internal/application"
	"github.com/bryanwahyu/mediaverify/internal/domain/ai"
	"github.com/bryanwahyu/mediaverify/internal/domain/checks"
	domain "github.com/bryanwahyu/mediaverify/internal/domain/reports"
)

// Service generates AI-written reports for stored checks and keeps them
// for retrieval.
type Service struct {
	Client ai.Client
	Repo   domain.Repository
	Checks checks.Repository
	Clock  application.Clock
}

// GenerateAndStore loads the check, asks the AI client for a reader-facing
// report and persists it.
func (s *Service) GenerateAndStore(ctx context.Context, tenant string, checkID checks.CheckID) (*domain.Report, error) {
	check, err := s.Checks.Get(ctx, tenant, checkID)
	if err != nil {
		return nil, err
	}
	if check == nil {
		return nil, fmt.Errorf("check not found: %s", checkID)
	}

	payload, err := json.Marshal(check)
	if err != nil {
		return nil, err
	}

	result, err := s.Client.Report(ctx, string(payload))
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		ID:        domain.ReportID(uuid.New().String()),
		TenantID:  tenant,
		CheckID:   string(checkID),
		Result:    result,
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// List returns a page of stored reports
func (s *Service) List(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Report, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// LatestByCheck returns the newest report for one check
func (s *Service) LatestByCheck(ctx context.Context, tenant string, checkID string) (*domain.Report, error) {
	return s.Repo.LatestByCheck(ctx, tenant, checkID)
}
