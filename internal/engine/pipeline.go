package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aniss699/bidguard/internal/cache"
	"github.com/aniss699/bidguard/internal/database"
	"github.com/aniss699/bidguard/internal/encoding"
	"github.com/aniss699/bidguard/internal/integrity"
	"github.com/aniss699/bidguard/internal/marketprice"
	"github.com/aniss699/bidguard/internal/monitoring"
	"github.com/aniss699/bidguard/internal/types"
)

// Pipeline runs one analysis end to end and publishes the result. The
// dispatcher owns scheduling; the pipeline owns the work.
type Pipeline interface {
	Run(ctx context.Context, missionID string) (report []byte, hash string, err error)
	Publish(ctx context.Context, missionID string, report []byte, hash string) error
}

// IntegrityPipeline is the production pipeline: it loads the mission's bid
// snapshot from the store, resolves the category market price, runs the
// integrity detector and encodes the report canonically.
type IntegrityPipeline struct {
	detector *integrity.Detector
	resolver *marketprice.Resolver
	repo     *database.Repository
	cache    *cache.ReportCache
	encoder  *encoding.CanonicalEncoder
	metrics  *monitoring.Metrics
	logger   *slog.Logger
}

func NewIntegrityPipeline(
	detector *integrity.Detector,
	resolver *marketprice.Resolver,
	repo *database.Repository,
	reportCache *cache.ReportCache,
	encoder *encoding.CanonicalEncoder,
	metrics *monitoring.Metrics,
	logger *slog.Logger,
) *IntegrityPipeline {
	return &IntegrityPipeline{
		detector: detector,
		resolver: resolver,
		repo:     repo,
		cache:    reportCache,
		encoder:  encoder,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run analyzes the current bid snapshot of a mission. Identical snapshots
// produce byte-identical reports, so the snapshot hash doubles as a cache key.
func (p *IntegrityPipeline) Run(ctx context.Context, missionID string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	mission, err := p.repo.GetMission(missionID)
	if err != nil {
		return nil, "", err
	}
	if mission == nil {
		return nil, "", fmt.Errorf("mission %s not found", missionID)
	}

	bids, err := p.repo.BidsForMission(missionID)
	if err != nil {
		return nil, "", err
	}

	marketPrice := p.resolver.Resolve(ctx, mission.Category)

	snapshotHash, err := p.encoder.Hash(types.IntegrityRequest{
		MissionID:   missionID,
		Category:    mission.Category,
		Bids:        bids,
		MarketPrice: &marketPrice,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash snapshot: %w", err)
	}

	if cached, ok := p.cache.Get(snapshotHash); ok {
		p.metrics.IncrementCacheHit()
		return cached, snapshotHash, nil
	}
	p.metrics.IncrementCacheMiss()

	report := p.detector.Analyze(bids, marketPrice)
	p.recordOutcome(report)

	encoded, err := p.encoder.Marshal(report)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode report: %w", err)
	}

	p.metrics.IncrementAnalyses()
	return encoded, snapshotHash, nil
}

// Publish stores the report under the mission and caches it by snapshot hash
func (p *IntegrityPipeline) Publish(ctx context.Context, missionID string, report []byte, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.cache.Set(hash, report)
	if err := p.repo.SaveReport(missionID, hash, report); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

func (p *IntegrityPipeline) recordOutcome(report integrity.IntegrityReport) {
	for _, c := range report.Dumping.Cases {
		p.metrics.RecordDumpingCases(string(c.Severity), 1)
	}
	p.metrics.AddCollusionGroups(len(report.Collusion.Groups))
	p.metrics.AddSkippedBids(len(report.SkippedBids))
}
