package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

const (
	shopS1    = "6f1c1f4e-0d7a-4c55-9b61-2f5e8f0c1a01"
	productP1 = "0b8a7e0c-5a55-4d4e-8a11-8f1f2d7c3b01"
	productP2 = "0b8a7e0c-5a55-4d4e-8a11-8f1f2d7c3b02"
	ownerID   = "a3d1e7b2-9c44-4b8e-b1f0-5d2c6e8f9a10"
)

type serviceFixture struct {
	svc        *ForecastService
	products   *fakeProducts
	sales      *fakeSales
	forecasts  *fakeForecasts
	access     *fakeAccess
	classifier *fakeClassifier
	now        time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		products: &fakeProducts{items: []models.ProductStock{
			{ID: productP1, Name: "Rice 5kg", Quantity: sql.NullInt64{Int64: 20, Valid: true}, MinStockLevel: sql.NullInt64{Int64: 5, Valid: true}},
			{ID: productP2, Name: "Eggs", Quantity: sql.NullInt64{Int64: 0, Valid: true}},
		}},
		sales:     &fakeSales{items: []models.SoldItem{{ProductID: productP1, Quantity: 25}, {ProductID: productP1, Quantity: 35}}},
		forecasts: newFakeForecasts(),
		access:    &fakeAccess{owner: ownerID},
		classifier: &fakeClassifier{entries: []models.ForecastEntry{
			{ProductID: productP1, ProductName: "Rice 5kg", RiskLevel: models.RiskWarning, DaysUntilStockout: floatPtr(10), ConfidenceScore: 80, Recommendation: "Reorder soon"},
			{ProductID: productP2, ProductName: "Eggs", RiskLevel: models.RiskCritical, DaysUntilStockout: floatPtr(0), ConfidenceScore: 95, Recommendation: "Out of stock"},
		}},
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewForecastService(f.products, f.sales, f.forecasts, NewTrustedContext(f.access, "test"), testAuthService(), f.classifier)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *serviceFixture) bearer(t *testing.T, userID string) string {
	return "Bearer " + signTestToken(t, userID)
}

func TestGenerateForecast_ScenarioS1(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)

	require.Len(t, result.ProductsData, 2)
	p1 := result.ProductsData[0]
	assert.Equal(t, 60, p1.TotalSales30Days)
	assert.Equal(t, 2.0, p1.AvgDailySales)
	require.NotNil(t, p1.DaysUntilStockout)
	assert.Equal(t, 10, *p1.DaysUntilStockout)

	p2 := result.ProductsData[1]
	assert.Equal(t, 0.0, p2.AvgDailySales)
	assert.Nil(t, p2.DaysUntilStockout)

	assert.Equal(t, f.classifier.entries, result.Forecasts)
	assert.Equal(t, result.ProductsData, f.classifier.got)
	assert.Equal(t, f.now.AddDate(0, 0, -30), f.sales.since)

	row, ok := f.forecasts.row(productP1, shopS1)
	require.True(t, ok)
	assert.Equal(t, 2.0, row.DailySalesAvg)
	assert.Equal(t, 20, row.CurrentStock)
	assert.Equal(t, int64(10), row.DaysUntilStockout.Int64)
	assert.Equal(t, 80.0, row.ConfidenceScore.Float64)

	row, ok = f.forecasts.row(productP2, shopS1)
	require.True(t, ok)
	assert.False(t, row.DaysUntilStockout.Valid, "null horizon must persist as NULL, not 0")
}

func TestGenerateForecast_SecondRunOverwrites(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.GenerateForecast(ctx, shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)

	f.classifier.entries = []models.ForecastEntry{
		{ProductID: productP1, RiskLevel: models.RiskCritical, ConfidenceScore: 60, Recommendation: "Reorder today"},
	}
	_, err = f.svc.GenerateForecast(ctx, shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)

	assert.Len(t, f.forecasts.rows, 2)
	row, _ := f.forecasts.row(productP1, shopS1)
	assert.Equal(t, 60.0, row.ConfidenceScore.Float64)
	assert.Equal(t, "Reorder today", row.Recommendation.String)
}

func TestGenerateForecast_MissingShopIDBeforeAuth(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GenerateForecast(context.Background(), "  ", "")
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
	assert.Empty(t, f.access.calls)
}

func TestGenerateForecast_Unauthorized(t *testing.T) {
	f := newServiceFixture(t)

	for _, header := range []string{"", "Basic abc", "Bearer not-a-jwt"} {
		_, err := f.svc.GenerateForecast(context.Background(), shopS1, header)
		assert.ErrorIs(t, err, utils.ErrUnauthorized, header)
	}
	assert.Empty(t, f.access.calls)
	assert.Zero(t, f.products.calls)
}

func TestGenerateForecast_NonUUIDShop(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GenerateForecast(context.Background(), "shop-1", f.bearer(t, ownerID))
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
}

func TestGenerateForecast_ForbiddenReadsNothing(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, "stranger"))
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.Zero(t, f.products.calls)
	assert.Zero(t, f.sales.calls)
	assert.Zero(t, f.classifier.calls)
	assert.Zero(t, f.forecasts.upserts)
}

func TestGenerateForecast_StaffAndAdmin(t *testing.T) {
	f := newServiceFixture(t)
	f.access.staff = map[string]bool{"staff-user": true}
	f.access.admins = map[string]bool{"admin-user": true}

	_, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, "staff-user"))
	assert.NoError(t, err)
	_, err = f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, "admin-user"))
	assert.NoError(t, err)
}

func TestGenerateForecast_UpstreamErrorsSkipPersistence(t *testing.T) {
	for _, want := range []error{utils.ErrRateLimited, utils.ErrQuotaExceeded, utils.ErrUpstream} {
		t.Run(want.Error(), func(t *testing.T) {
			f := newServiceFixture(t)
			cache := &fakeCache{}
			pub := &fakePublisher{}
			f.svc.SetCache(cache)
			f.svc.SetPublisher(pub)
			f.classifier.err = want

			_, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
			assert.ErrorIs(t, err, want)
			assert.Zero(t, f.forecasts.upserts)
			assert.Empty(t, cache.runs)
			assert.Empty(t, pub.events)
		})
	}
}

func TestGenerateForecast_NotConfigured(t *testing.T) {
	f := newServiceFixture(t)
	f.svc.classifier = nil

	_, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	assert.ErrorIs(t, err, utils.ErrAINotConfigured)
	assert.Zero(t, f.products.calls)
	assert.NotEmpty(t, f.access.calls)
}

func TestGenerateForecast_UnknownProductReturnedNotWritten(t *testing.T) {
	f := newServiceFixture(t)
	ghost := models.ForecastEntry{ProductID: "ghost", RiskLevel: models.RiskCritical, ConfidenceScore: 10}
	f.classifier.entries = append(f.classifier.entries, ghost)

	result, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)
	assert.Contains(t, result.Forecasts, ghost)
	_, ok := f.forecasts.row("ghost", shopS1)
	assert.False(t, ok)
	assert.Equal(t, 2, f.forecasts.upserts)
}

func TestGenerateForecast_PersistenceFailureStillSucceeds(t *testing.T) {
	f := newServiceFixture(t)
	f.forecasts.failFor[productP1] = true

	result, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)
	assert.Len(t, result.Forecasts, 2)
	_, ok := f.forecasts.row(productP2, shopS1)
	assert.True(t, ok)
}

func TestGenerateForecast_DataLoadError(t *testing.T) {
	f := newServiceFixture(t)
	f.sales.err = errors.New("timeout")

	_, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	require.Error(t, err)
	assert.Zero(t, f.classifier.calls)
}

func TestGenerateForecast_CachesAndPublishes(t *testing.T) {
	f := newServiceFixture(t)
	cache := &fakeCache{}
	pub := &fakePublisher{err: errors.New("broker down")}
	f.svc.SetCache(cache)
	f.svc.SetPublisher(pub)

	_, err := f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	require.NoError(t, err, "publish failures are not surfaced")

	run := cache.runs[shopS1]
	require.NotNil(t, run)
	assert.Equal(t, 2, run.Persisted)
	assert.Equal(t, f.now, run.GeneratedAt)

	require.Len(t, pub.events, 1)
	assert.Equal(t, 1, pub.events[0].Critical)
	assert.Equal(t, 1, pub.events[0].Warning)
	assert.Equal(t, []string{productP2}, pub.events[0].CriticalIDs)
	assert.Equal(t, run.RunID, pub.events[0].RunID)
}

func TestGenerateForecast_CanceledRequestStillPersists(t *testing.T) {
	f := newServiceFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.GenerateForecast(ctx, shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)
	assert.Equal(t, 2, f.forecasts.upserts)
}

func TestListForecasts(t *testing.T) {
	f := newServiceFixture(t)
	f.forecasts.list = []models.Forecast{{
		ProductID:    productP1,
		ShopID:       shopS1,
		CurrentStock: 20,
		ProductName:  sql.NullString{String: "Rice 5kg", Valid: true},
		UpdatedAt:    f.now,
	}}

	views, err := f.svc.ListForecasts(context.Background(), shopS1, ownerID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Rice 5kg", views[0].ProductName)
	assert.Nil(t, views[0].DaysUntilStockout)

	_, err = f.svc.ListForecasts(context.Background(), shopS1, "stranger")
	assert.ErrorIs(t, err, utils.ErrForbidden)
	_, err = f.svc.ListForecasts(context.Background(), "nope", ownerID)
	assert.ErrorIs(t, err, utils.ErrInvalidRequest)
}

func TestLatestRun(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.LatestRun(context.Background(), shopS1, ownerID)
	assert.ErrorIs(t, err, utils.ErrForecastNotCached, "no cache configured")

	cache := &fakeCache{}
	f.svc.SetCache(cache)
	_, err = f.svc.LatestRun(context.Background(), shopS1, ownerID)
	assert.ErrorIs(t, err, utils.ErrForecastNotCached)

	_, err = f.svc.GenerateForecast(context.Background(), shopS1, f.bearer(t, ownerID))
	require.NoError(t, err)

	run, err := f.svc.LatestRun(context.Background(), shopS1, ownerID)
	require.NoError(t, err)
	assert.Equal(t, shopS1, run.ShopID)

	_, err = f.svc.LatestRun(context.Background(), shopS1, "stranger")
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestAuthService_Authenticate(t *testing.T) {
	auth := testAuthService()

	userID, err := auth.Authenticate(signTestToken(t, "u-1"))
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	_, err = auth.Authenticate("garbage")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestGenerateForecast_RecordsCaller(t *testing.T) {
	f := newServiceFixture(t)

	ctx, caller := WithCaller(context.Background())
	_, err := f.svc.GenerateForecast(ctx, shopS1, f.bearer(t, "stranger"))
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.Equal(t, "stranger", caller.UserID)

	ctx, caller = WithCaller(context.Background())
	_, err = f.svc.GenerateForecast(ctx, shopS1, "Bearer garbage")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
	assert.Empty(t, caller.UserID)
}
