package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/GTDGit/gtd_forecast/internal/events"
	"github.com/GTDGit/gtd_forecast/internal/metrics"
	"github.com/GTDGit/gtd_forecast/internal/models"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// ProductStore loads the products of a shop with their stock.
type ProductStore interface {
	ListActiveWithStock(ctx context.Context, shopID string) ([]models.ProductStock, error)
}

// SalesStore loads completed order lines of a shop.
type SalesStore interface {
	ListCompletedSince(ctx context.Context, shopID string, since time.Time) ([]models.SoldItem, error)
}

// ForecastStore persists and lists forecast rows.
type ForecastStore interface {
	Upsert(ctx context.Context, f *models.Forecast) error
	ListByShop(ctx context.Context, shopID string) ([]models.Forecast, error)
}

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// LatestRunCache keeps the most recent run of each shop.
type LatestRunCache interface {
	SetLatest(ctx context.Context, run *models.ForecastRun) error
	GetLatest(ctx context.Context, shopID string) (*models.ForecastRun, error)
}

// EventPublisher announces finished forecast runs.
type EventPublisher interface {
	PublishForecastGenerated(ctx context.Context, event events.ForecastGeneratedEvent) error
}

// ForecastService runs the inventory forecast pipeline for a shop.
type ForecastService struct {
	products   ProductStore
	sales      SalesStore
	forecasts  ForecastStore
	trusted    TrustedContext
	auth       Authenticator
	classifier Classifier

	cache     LatestRunCache
	publisher EventPublisher
	now       func() time.Time
}

// NewForecastService constructs a ForecastService. classifier may be nil when
// no provider is configured; runs then fail with utils.ErrAINotConfigured.
func NewForecastService(
	products ProductStore,
	sales SalesStore,
	forecasts ForecastStore,
	trusted TrustedContext,
	auth Authenticator,
	classifier Classifier,
) *ForecastService {
	return &ForecastService{
		products:   products,
		sales:      sales,
		forecasts:  forecasts,
		trusted:    trusted,
		auth:       auth,
		classifier: classifier,
		now:        time.Now,
	}
}

// SetCache enables the latest-run cache.
func (s *ForecastService) SetCache(cache LatestRunCache) {
	s.cache = cache
}

// SetPublisher enables forecast events.
func (s *ForecastService) SetPublisher(publisher EventPublisher) {
	s.publisher = publisher
}

// ClassifierConfigured reports whether runs can reach a model.
func (s *ForecastService) ClassifierConfigured() bool {
	return s.classifier != nil
}

// GenerateForecast validates the request, authenticates and authorizes the
// caller, computes sales features, classifies them and upserts one forecast per
// known product. The returned forecasts are the classifier output as received,
// including entries that were not persisted.
func (s *ForecastService) GenerateForecast(ctx context.Context, shopID, authHeader string) (result *models.ForecastResult, err error) {
	defer func() { metrics.ForecastRuns.WithLabelValues(runOutcome(err)).Inc() }()

	shopID = strings.TrimSpace(shopID)
	if shopID == "" {
		return nil, fmt.Errorf("%w: shop ID is required", utils.ErrInvalidRequest)
	}

	token, ok := utils.ExtractBearerToken(authHeader)
	if !ok {
		return nil, fmt.Errorf("%w: missing auth token", utils.ErrUnauthorized)
	}

	if _, err := uuid.Parse(shopID); err != nil {
		return nil, fmt.Errorf("%w: shop ID must be a UUID", utils.ErrInvalidRequest)
	}

	userID, err := s.auth.Authenticate(token)
	if err != nil {
		return nil, err
	}
	recordCaller(ctx, userID)
	log.Info().Str("user_id", userID).Str("shop_id", shopID).Msg("Forecast requested")

	access, err := AuthorizeShopAccess(ctx, s.trusted, shopID, userID)
	if err != nil {
		return nil, err
	}

	if s.classifier == nil {
		return nil, utils.ErrAINotConfigured
	}

	ctx, span := otel.Tracer("forecast-service").Start(ctx, "forecast.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("shop.id", shopID),
		attribute.String("access.via", string(access.Via)),
	)

	features, err := s.loadFeatures(ctx, shopID)
	if err != nil {
		return nil, err
	}

	entries, err := s.classifier.Classify(ctx, features)
	if err != nil {
		log.Error().Err(err).Str("shop_id", shopID).Str("provider", s.classifier.Name()).Msg("Forecast classification failed")
		return nil, err
	}

	// Persistence outlives an abandoned request.
	report := s.persistForecasts(context.WithoutCancel(ctx), shopID, entries, features)

	run := &models.ForecastRun{
		RunID:        uuid.NewString(),
		ShopID:       shopID,
		GeneratedAt:  s.now().UTC(),
		Forecasts:    entries,
		ProductsData: features,
		Persisted:    report.Written(),
		Failed:       report.Failed(),
		Skipped:      report.Skipped(),
	}
	s.afterRun(context.WithoutCancel(ctx), run)

	log.Info().
		Str("shop_id", shopID).
		Str("run_id", run.RunID).
		Int("products", len(features)).
		Int("forecasts", len(entries)).
		Int("persisted", run.Persisted).
		Int("failed", run.Failed).
		Int("skipped", run.Skipped).
		Msg("Forecast generated")

	return &models.ForecastResult{Forecasts: entries, ProductsData: features}, nil
}

// ListForecasts returns the persisted forecasts of a shop the user may manage.
func (s *ForecastService) ListForecasts(ctx context.Context, shopID, userID string) ([]models.ForecastView, error) {
	if err := s.authorizeRead(ctx, shopID, userID); err != nil {
		return nil, err
	}

	rows, err := s.forecasts.ListByShop(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("list forecasts: %w", err)
	}

	views := make([]models.ForecastView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.View())
	}
	return views, nil
}

// LatestRun returns the cached most recent run of a shop the user may manage.
func (s *ForecastService) LatestRun(ctx context.Context, shopID, userID string) (*models.ForecastRun, error) {
	if err := s.authorizeRead(ctx, shopID, userID); err != nil {
		return nil, err
	}
	if s.cache == nil {
		return nil, utils.ErrForecastNotCached
	}
	return s.cache.GetLatest(ctx, shopID)
}

func (s *ForecastService) authorizeRead(ctx context.Context, shopID, userID string) error {
	if _, err := uuid.Parse(shopID); err != nil {
		return fmt.Errorf("%w: shop ID must be a UUID", utils.ErrInvalidRequest)
	}
	if userID == "" {
		return utils.ErrUnauthorized
	}
	_, err := AuthorizeShopAccess(ctx, s.trusted, shopID, userID)
	return err
}

// loadFeatures reads products and sales with two independent queries; the
// stock snapshot and the sales history may reflect slightly different instants.
func (s *ForecastService) loadFeatures(ctx context.Context, shopID string) ([]models.SalesFeature, error) {
	products, err := s.products.ListActiveWithStock(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	since := s.now().AddDate(0, 0, -SalesWindowDays)
	sold, err := s.sales.ListCompletedSince(ctx, shopID, since)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}

	return ComputeSalesFeatures(products, sold), nil
}

// afterRun caches the run and publishes its event. Failures are logged only.
func (s *ForecastService) afterRun(ctx context.Context, run *models.ForecastRun) {
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, run); err != nil {
			log.Warn().Err(err).Str("shop_id", run.ShopID).Msg("Failed to cache forecast run")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishForecastGenerated(ctx, events.NewForecastGeneratedEvent(run)); err != nil {
			log.Warn().Err(err).Str("shop_id", run.ShopID).Msg("Failed to publish forecast event")
		}
	}
}

func runOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, utils.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, utils.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, utils.ErrForbidden):
		return "forbidden"
	case errors.Is(err, utils.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, utils.ErrQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, utils.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, utils.ErrAINotConfigured):
		return "not_configured"
	default:
		return "error"
	}
}
