package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_forecast/internal/middleware"
	"github.com/GTDGit/gtd_forecast/internal/service"
	"github.com/GTDGit/gtd_forecast/internal/utils"
)

// ForecastHandler exposes forecast runs and their results over HTTP.
type ForecastHandler struct {
	forecastService *service.ForecastService
	rateLimiter     *middleware.InvalidAuthRateLimiter
}

// NewForecastHandler constructs a ForecastHandler.
func NewForecastHandler(forecastService *service.ForecastService, rateLimiter *middleware.InvalidAuthRateLimiter) *ForecastHandler {
	return &ForecastHandler{
		forecastService: forecastService,
		rateLimiter:     rateLimiter,
	}
}

type generateForecastRequest struct {
	ShopID string `json:"shopId"`
}

// GenerateForecast runs a forecast for the shop in the request body.
func (h *ForecastHandler) GenerateForecast(c *gin.Context) {
	var req generateForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ShopID) == "" {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Shop ID is required")
		return
	}

	if middleware.RespondIfThrottled(c, h.rateLimiter) {
		return
	}

	ctx, caller := service.WithCaller(c.Request.Context())
	result, err := h.forecastService.GenerateForecast(ctx, req.ShopID, c.GetHeader("Authorization"))
	if caller.UserID != "" {
		c.Set("user_id", caller.UserID)
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.JSON(c, http.StatusOK, result)
}

// ListForecasts returns the persisted forecasts of a shop.
func (h *ForecastHandler) ListForecasts(c *gin.Context) {
	forecasts, err := h.forecastService.ListForecasts(c.Request.Context(), c.Param("shopId"), middleware.GetUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.JSON(c, http.StatusOK, gin.H{"forecasts": forecasts})
}

// GetLatest returns the cached latest run of a shop.
func (h *ForecastHandler) GetLatest(c *gin.Context) {
	run, err := h.forecastService.LatestRun(c.Request.Context(), c.Param("shopId"), middleware.GetUserID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	utils.JSON(c, http.StatusOK, run)
}

func (h *ForecastHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrInvalidRequest):
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid shop ID")
	case errors.Is(err, utils.ErrUnauthorized):
		middleware.RespondUnauthorized(c, h.rateLimiter)
	case errors.Is(err, utils.ErrForbidden):
		utils.Error(c, http.StatusForbidden, "FORBIDDEN", "Forbidden - you don't have access to this shop")
	case errors.Is(err, utils.ErrRateLimited):
		utils.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Rate limit exceeded. Please try again later.")
	case errors.Is(err, utils.ErrQuotaExceeded):
		utils.Error(c, http.StatusPaymentRequired, "QUOTA_EXCEEDED", "AI credits exhausted. Please add credits.")
	case errors.Is(err, utils.ErrAINotConfigured):
		utils.Error(c, http.StatusInternalServerError, "AI_NOT_CONFIGURED", "AI service not configured")
	case errors.Is(err, utils.ErrUpstream):
		utils.Error(c, http.StatusInternalServerError, "UPSTREAM_ERROR", "AI service error")
	case errors.Is(err, utils.ErrForecastNotCached):
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "No forecast available for this shop")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Forecast request failed")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate forecast")
	}
}
