package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/infrastructure/cache"
)

type dashboardFixture struct {
	customers  *MockCustomerRepository
	apps       *MockApplicationRepository
	contracts  *MockContractRepository
	events     *MockEventRepository
	categories *MockCategoryRepository
	cache      *cache.InMemoryCache
	svc        *DashboardService
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		customers:  new(MockCustomerRepository),
		apps:       new(MockApplicationRepository),
		contracts:  new(MockContractRepository),
		events:     new(MockEventRepository),
		categories: new(MockCategoryRepository),
		cache:      cache.NewInMemoryCache(),
	}
	intelligence := NewIntelligenceService(f.customers, f.apps, f.contracts, f.events, f.categories, zap.NewNop())
	periodic := NewPeriodicService(f.apps, zap.NewNop())
	efficiency := NewEfficiencyService(f.contracts, f.events, zap.NewNop())
	f.svc = NewDashboardService(intelligence, periodic, efficiency, f.cache, 25*time.Hour, zap.NewNop())
	return f
}

// expectEmptyBook wires every aggregate source to an empty result
func (f *dashboardFixture) expectEmptyBook() {
	f.apps.On("FindSubmitted", mock.Anything).Return([]installment.InstallmentApplication{}, nil)
	f.contracts.On("FindAll", mock.Anything).Return([]installment.Contract{}, nil)
	f.events.On("FindSubmittedBetween", mock.Anything, mock.Anything, mock.Anything).
		Return([]payment.PaymentEvent{}, nil)
	f.categories.On("FindAll", mock.Anything).Return([]payment.CounterpartyCategory{}, nil)
	f.customers.On("FindAll", mock.Anything).Return([]partner.Customer{}, nil)
}

func TestDashboardService_GetIntelligence_SecondReadHitsCache(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.expectEmptyBook()

	first, err := f.svc.GetIntelligence(ctx, false)
	assert.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.svc.GetIntelligence(ctx, false)
	assert.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.NotEmpty(t, second.CachedAt)
	assert.True(t, second.KPIs.TotalDebt.Equal(first.KPIs.TotalDebt))

	// the aggregate ran exactly once
	f.apps.AssertNumberOfCalls(t, "FindSubmitted", 1)
}

func TestDashboardService_GetIntelligence_ForceRefreshRecomputes(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.expectEmptyBook()

	_, err := f.svc.GetIntelligence(ctx, false)
	assert.NoError(t, err)

	refreshed, err := f.svc.GetIntelligence(ctx, true)
	assert.NoError(t, err)
	assert.False(t, refreshed.FromCache)
	f.apps.AssertNumberOfCalls(t, "FindSubmitted", 2)
}

func TestDashboardService_GetIntelligence_ZeroFilledOnAggregateFailure(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()

	f.apps.On("FindSubmitted", mock.Anything).
		Return([]installment.InstallmentApplication(nil), errors.New("connection refused"))

	resp, err := f.svc.GetIntelligence(ctx, false)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.False(t, resp.FromCache)
	assert.True(t, resp.KPIs.TotalDebt.Equal(decimal.Zero))
	assert.True(t, resp.ROIPercentage.Equal(decimal.Zero))
	assert.NotNil(t, resp.Tiers)
}

func TestDashboardService_GetPeriodic_CustomWindowNeverCached(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.expectEmptyBook()

	from := testDate(2025, time.January, 1)
	to := testDate(2025, time.December, 31)

	first, err := f.svc.GetPeriodic(ctx, &from, &to, false)
	assert.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, "2025-01-01", first.DateRange.FromDate)

	// the custom window left nothing behind for the default read
	second, err := f.svc.GetPeriodic(ctx, nil, nil, false)
	assert.NoError(t, err)
	assert.False(t, second.FromCache)
	f.apps.AssertNumberOfCalls(t, "FindSubmitted", 2)
}

func TestDashboardService_Invalidate_DropsSnapshots(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.expectEmptyBook()

	_, err := f.svc.GetIntelligence(ctx, false)
	assert.NoError(t, err)
	_, err = f.svc.GetPeriodic(ctx, nil, nil, false)
	assert.NoError(t, err)

	f.svc.Invalidate(ctx)

	intelligence, err := f.svc.GetIntelligence(ctx, false)
	assert.NoError(t, err)
	assert.False(t, intelligence.FromCache)
	assert.Empty(t, intelligence.CachedAt)
}

func TestDashboardService_RebuildAll_WarmsBothSnapshots(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.expectEmptyBook()

	err := f.svc.RebuildAll(ctx)
	assert.NoError(t, err)

	intelligence, err := f.svc.GetIntelligence(ctx, false)
	assert.NoError(t, err)
	assert.True(t, intelligence.FromCache)

	periodic, err := f.svc.GetPeriodic(ctx, nil, nil, false)
	assert.NoError(t, err)
	assert.True(t, periodic.FromCache)
}

func TestDashboardService_GetDashboardData_YearFilter(t *testing.T) {
	f := newDashboardFixture()
	ctx := context.Background()
	f.expectEmptyBook()

	resp, err := f.svc.GetDashboardData(ctx, 2025, false)

	assert.NoError(t, err)
	assert.NotNil(t, resp.Intelligence)
	assert.NotNil(t, resp.Periodic)
	assert.NotNil(t, resp.Efficiency)
	// a year filter is a custom window: recomputed, never served from cache
	assert.False(t, resp.Periodic.FromCache)
	assert.Equal(t, "2025-01-01", resp.Periodic.DateRange.FromDate)
	assert.Equal(t, "2025-12-31", resp.Periodic.DateRange.ToDate)
}
