package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ehr/consentledger/internal/domain/consent"
	"github.com/ehr/consentledger/internal/domain/patient"
	"github.com/ehr/consentledger/internal/domain/record"
	"github.com/ehr/consentledger/internal/domain/stats"
	"github.com/ehr/consentledger/internal/domain/transaction"
	"github.com/ehr/consentledger/internal/platform/db"
	"github.com/ehr/consentledger/internal/platform/middleware"
)

func newServer(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(a.logger)

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(a.cfg.BodyLimit))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: a.cfg.RateLimitRPS,
		BurstSize:         a.cfg.RateLimitBurst,
	}))
	e.Use(middleware.RequestTimeout(a.cfg.RequestTimeout))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "Backend API is running",
		})
	})
	if a.dbCheck != nil {
		e.GET("/health/db", db.HealthHandler(a.dbCheck))
	}

	api := e.Group("/api")
	patient.NewHandler(patient.NewService(a.store)).RegisterRoutes(api)
	record.NewHandler(record.NewService(a.store)).RegisterRoutes(api)
	consent.NewHandler(consent.NewService(a.store, a.publisher, a.logger)).RegisterRoutes(api)
	transaction.NewHandler(transaction.NewService(a.store)).RegisterRoutes(api)
	stats.NewHandler(stats.NewAggregator(a.store)).RegisterRoutes(api)

	return e
}
