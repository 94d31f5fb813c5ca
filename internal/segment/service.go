package segment

import (
	"context"
	"fmt"
	"time"

	"github.com/opensource-retail/kestrel/internal/domain"
)

// reportTTL bounds how stale a cached segmentation batch may be.
const reportTTL = 5 * time.Minute

// Service computes segmentation reports over stored transactions,
// caching whole batches so scores stay comparable within one report.
type Service struct {
	repo  domain.Repository
	cache domain.Cache
}

// NewService creates a segmentation service.
func NewService(repo domain.Repository, cache domain.Cache) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
	}
}

// SegmentsFor returns the segmentation report for an org over
// transactions since the cutoff. A cached batch is returned when fresh;
// otherwise the batch is pulled from storage, computed, and cached as a
// unit.
func (s *Service) SegmentsFor(ctx context.Context, orgID string, since time.Time) ([]domain.CustomerSegment, error) {
	if orgID == "" {
		return nil, fmt.Errorf("orgID is required")
	}

	key := reportKey(since)

	if s.cache != nil {
		cached, err := s.cache.GetSegmentReport(ctx, orgID, key)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	transactions, err := s.repo.ListTransactions(ctx, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	segments := ComputeSegments(transactions)

	if s.cache != nil {
		_ = s.cache.SetSegmentReport(ctx, orgID, key, segments, reportTTL)
	}

	return segments, nil
}

func reportKey(since time.Time) string {
	if since.IsZero() {
		return "segments:latest"
	}
	return "segments:" + since.Format("2006-01-02")
}
