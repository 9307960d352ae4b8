package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_forecast/internal/events"
	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

const testJWTSecret = "service-test-secret"

func signTestToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return s
}

func testAuthService() *AuthService {
	return NewAuthService(utils.NewTokenVerifier(testJWTSecret, "", "authenticated"))
}

type fakeProducts struct {
	items []models.ProductStock
	err   error
	calls int
}

func (f *fakeProducts) ListActiveWithStock(_ context.Context, _ string) ([]models.ProductStock, error) {
	f.calls++
	return f.items, f.err
}

type fakeSales struct {
	items []models.SoldItem
	err   error
	calls int
	since time.Time
}

func (f *fakeSales) ListCompletedSince(_ context.Context, _ string, since time.Time) ([]models.SoldItem, error) {
	f.calls++
	f.since = since
	return f.items, f.err
}

type fakeForecasts struct {
	mu      sync.Mutex
	rows    map[string]models.Forecast
	upserts int
	failFor map[string]bool
	list    []models.Forecast
}

func newFakeForecasts() *fakeForecasts {
	return &fakeForecasts{rows: map[string]models.Forecast{}, failFor: map[string]bool{}}
}

func (f *fakeForecasts) Upsert(_ context.Context, row *models.Forecast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.failFor[row.ProductID] {
		return errors.New("connection reset")
	}
	f.rows[row.ProductID+"/"+row.ShopID] = *row
	return nil
}

func (f *fakeForecasts) ListByShop(_ context.Context, _ string) ([]models.Forecast, error) {
	return f.list, nil
}

func (f *fakeForecasts) row(productID, shopID string) (models.Forecast, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[productID+"/"+shopID]
	return r, ok
}

type fakeAccess struct {
	owner  string
	staff  map[string]bool
	admins map[string]bool
	err    error
	calls  []string
}

func (f *fakeAccess) ShopOwnerID(_ context.Context, _ string) (string, bool, error) {
	f.calls = append(f.calls, "owner")
	if f.err != nil {
		return "", false, f.err
	}
	return f.owner, f.owner != "", nil
}

func (f *fakeAccess) IsShopStaff(_ context.Context, _, userID string) (bool, error) {
	f.calls = append(f.calls, "staff")
	return f.staff[userID], nil
}

func (f *fakeAccess) HasRole(_ context.Context, userID, role string) (bool, error) {
	f.calls = append(f.calls, "role:"+role)
	return f.admins[userID], nil
}

type fakeClassifier struct {
	entries []models.ForecastEntry
	err     error
	calls   int
	got     []models.SalesFeature
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) Classify(_ context.Context, features []models.SalesFeature) ([]models.ForecastEntry, error) {
	f.calls++
	f.got = features
	return f.entries, f.err
}

type fakeCache struct {
	runs   map[string]*models.ForecastRun
	setErr error
}

func (f *fakeCache) SetLatest(_ context.Context, run *models.ForecastRun) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.runs == nil {
		f.runs = map[string]*models.ForecastRun{}
	}
	f.runs[run.ShopID] = run
	return nil
}

func (f *fakeCache) GetLatest(_ context.Context, shopID string) (*models.ForecastRun, error) {
	if run, ok := f.runs[shopID]; ok {
		return run, nil
	}
	return nil, utils.ErrForecastNotCached
}

type fakePublisher struct {
	events []events.ForecastGeneratedEvent
	err    error
}

func (f *fakePublisher) PublishForecastGenerated(_ context.Context, event events.ForecastGeneratedEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }
