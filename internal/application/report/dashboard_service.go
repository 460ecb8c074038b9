package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/infrastructure/cache"
)

// Snapshot cache keys. The timestamp key is shared so both snapshots report
// the same rebuild moment.
const (
	cacheKeyIntelligence = "intelligence_data"
	cacheKeyPeriodic     = "periodic_data"
	cacheKeyTimestamp    = "cache_timestamp"
)

// SnapshotCache is the slice of the cache the dashboard needs
type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// IntelligenceSnapshotResponse wraps the intelligence snapshot with its
// cache provenance stamps.
type IntelligenceSnapshotResponse struct {
	*IntelligenceResponse
	FromCache bool   `json:"_from_cache"`
	CachedAt  string `json:"_cached_at,omitempty"`
}

// PeriodicSnapshotResponse wraps the periodic snapshot with its cache
// provenance stamps.
type PeriodicSnapshotResponse struct {
	*PeriodicResponse
	FromCache bool   `json:"_from_cache"`
	CachedAt  string `json:"_cached_at,omitempty"`
}

// DashboardResponse is the combined dashboard payload
type DashboardResponse struct {
	Intelligence *IntelligenceSnapshotResponse `json:"intelligence"`
	Periodic     *PeriodicSnapshotResponse     `json:"periodic"`
	Efficiency   []EfficiencyPointResponse     `json:"efficiency"`
}

// DashboardService fronts the heavy aggregators with a Redis snapshot cache.
// Reads never fail the caller: a broken aggregate is logged and replaced
// with a zero-filled shape so the dashboard still renders.
type DashboardService struct {
	intelligence *IntelligenceService
	periodic     *PeriodicService
	efficiency   *EfficiencyService
	cache        SnapshotCache
	ttl          time.Duration
	logger       *zap.Logger
}

// NewDashboardService creates a new DashboardService. A nil cache disables
// caching; every read then recomputes.
func NewDashboardService(
	intelligence *IntelligenceService,
	periodic *PeriodicService,
	efficiency *EfficiencyService,
	snapshotCache SnapshotCache,
	ttl time.Duration,
	logger *zap.Logger,
) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 25 * time.Hour
	}
	return &DashboardService{
		intelligence: intelligence,
		periodic:     periodic,
		efficiency:   efficiency,
		cache:        snapshotCache,
		ttl:          ttl,
		logger:       logger,
	}
}

// GetIntelligence returns the intelligence snapshot, from cache unless
// forceRefresh is set or the cache misses.
func (s *DashboardService) GetIntelligence(ctx context.Context, forceRefresh bool) (*IntelligenceSnapshotResponse, error) {
	if s.cache != nil && !forceRefresh {
		var cached IntelligenceResponse
		if ok := s.readSnapshot(ctx, cacheKeyIntelligence, &cached); ok {
			return &IntelligenceSnapshotResponse{
				IntelligenceResponse: &cached,
				FromCache:            true,
				CachedAt:             s.cachedAt(ctx),
			}, nil
		}
	}

	data, err := s.intelligence.Compute(ctx)
	if err != nil {
		s.logger.Error("Intelligence aggregate failed, serving zero-filled snapshot", zap.Error(err))
		return &IntelligenceSnapshotResponse{IntelligenceResponse: zeroIntelligence()}, nil
	}
	s.writeSnapshot(ctx, cacheKeyIntelligence, data)
	return &IntelligenceSnapshotResponse{IntelligenceResponse: data}, nil
}

// GetPeriodic returns the periodic snapshot. Only the default trailing
// twelve month window is cached; explicit windows always recompute.
func (s *DashboardService) GetPeriodic(ctx context.Context, from, to *time.Time, forceRefresh bool) (*PeriodicSnapshotResponse, error) {
	customWindow := from != nil || to != nil

	if s.cache != nil && !forceRefresh && !customWindow {
		var cached PeriodicResponse
		if ok := s.readSnapshot(ctx, cacheKeyPeriodic, &cached); ok {
			return &PeriodicSnapshotResponse{
				PeriodicResponse: &cached,
				FromCache:        true,
				CachedAt:         s.cachedAt(ctx),
			}, nil
		}
	}

	windowFrom, windowTo := DefaultWindow(time.Now())
	if from != nil {
		windowFrom = *from
	}
	if to != nil {
		windowTo = *to
	}

	data, err := s.periodic.Compute(ctx, windowFrom, windowTo)
	if err != nil {
		s.logger.Error("Periodic aggregate failed, serving zero-filled snapshot",
			zap.Time("from", windowFrom), zap.Time("to", windowTo), zap.Error(err))
		return &PeriodicSnapshotResponse{PeriodicResponse: zeroPeriodic(windowFrom, windowTo)}, nil
	}
	if !customWindow {
		s.writeSnapshot(ctx, cacheKeyPeriodic, data)
	}
	return &PeriodicSnapshotResponse{PeriodicResponse: data}, nil
}

// GetDashboardData returns the combined dashboard payload. A non-zero year
// narrows the periodic and efficiency panels to that calendar year.
func (s *DashboardService) GetDashboardData(ctx context.Context, yearFilter int, forceRefresh bool) (*DashboardResponse, error) {
	var from, to *time.Time
	if yearFilter > 0 {
		f := time.Date(yearFilter, time.January, 1, 0, 0, 0, 0, time.UTC)
		t := time.Date(yearFilter, time.December, 31, 23, 59, 59, 0, time.UTC)
		from, to = &f, &t
	}

	intelligence, err := s.GetIntelligence(ctx, forceRefresh)
	if err != nil {
		return nil, err
	}
	periodic, err := s.GetPeriodic(ctx, from, to, forceRefresh)
	if err != nil {
		return nil, err
	}

	effFrom, effTo := DefaultWindow(time.Now())
	if from != nil {
		effFrom, effTo = *from, *to
	}
	efficiency, err := s.efficiency.Compute(ctx, effFrom, effTo)
	if err != nil {
		s.logger.Error("Efficiency aggregate failed, serving empty series", zap.Error(err))
		efficiency = []EfficiencyPointResponse{}
	}

	return &DashboardResponse{
		Intelligence: intelligence,
		Periodic:     periodic,
		Efficiency:   efficiency,
	}, nil
}

// Invalidate drops every cached snapshot. Write paths call this after each
// financially material change; failures are logged, never surfaced, so a
// flaky cache cannot block a payment from posting.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyIntelligence, cacheKeyPeriodic, cacheKeyTimestamp); err != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(err))
		return
	}
	s.logger.Debug("Dashboard cache invalidated")
}

// RebuildAll recomputes both snapshots and rewrites the cache. The nightly
// job calls this so the first morning read is warm.
func (s *DashboardService) RebuildAll(ctx context.Context) error {
	intelligence, err := s.intelligence.Compute(ctx)
	if err != nil {
		return err
	}
	from, to := DefaultWindow(time.Now())
	periodic, err := s.periodic.Compute(ctx, from, to)
	if err != nil {
		return err
	}
	s.writeSnapshot(ctx, cacheKeyIntelligence, intelligence)
	s.writeSnapshot(ctx, cacheKeyPeriodic, periodic)
	s.logger.Info("Dashboard snapshots rebuilt",
		zap.Int("tier_groups", len(intelligence.Tiers)),
		zap.Int("periodic_months", len(periodic.MonthlyInvestment)))
	return nil
}

func (s *DashboardService) readSnapshot(ctx context.Context, key string, out any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("Dashboard cache payload corrupt, recomputing",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *DashboardService) writeSnapshot(ctx context.Context, key string, data any) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("Failed to encode dashboard snapshot", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, cacheKeyTimestamp, time.Now().Format(time.RFC3339), s.ttl); err != nil {
		s.logger.Warn("Dashboard cache timestamp write failed", zap.Error(err))
	}
}

func (s *DashboardService) cachedAt(ctx context.Context) string {
	raw, err := s.cache.Get(ctx, cacheKeyTimestamp)
	if err != nil {
		return ""
	}
	return raw
}

// zeroIntelligence is the zero-filled shape served when the aggregate fails
func zeroIntelligence() *IntelligenceResponse {
	return &IntelligenceResponse{
		KPIs: KPIResponse{
			InvestedCapital:  decimal.Zero,
			TotalInterest:    decimal.Zero,
			TotalExpenses:    decimal.Zero,
			NetProfit:        decimal.Zero,
			TotalDebt:        decimal.Zero,
			DebtA:            decimal.Zero,
			DebtB:            decimal.Zero,
			DebtC:            decimal.Zero,
			DebtUnclassified: decimal.Zero,
		},
		ROIPercentage: decimal.Zero,
		Tiers:         map[string][]TierRowResponse{},
	}
}

// zeroPeriodic is the zero-filled shape served when the aggregate fails
func zeroPeriodic(from, to time.Time) *PeriodicResponse {
	return &PeriodicResponse{
		MonthlyInvestment: []MonthlyPointResponse{},
		MonthlyNetProfit:  []MonthlyPointResponse{},
		ContractCount:     []MonthlyCountResponse{},
		MonthlySales:      []MonthlyPointResponse{},
		MonthlyMarginPct:  []MonthlyPctResponse{},
		DateRange: DateRangeResponse{
			FromDate: from.Format("2006-01-02"),
			ToDate:   to.Format("2006-01-02"),
		},
	}
}
