package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/kubecostopt/costopt-backend/internal/config"
	"github.com/kubecostopt/costopt-backend/internal/logging"
)

var log *logrus.Logger = logging.GetLogger()
var cfg *config.Config = config.GetConfig()

func StartAPIServer() {
	app := echo.New()
	app.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem: "costopt",
		LabelFuncs: map[string]echoprometheus.LabelValueFunc{
			"url": func(c echo.Context, err error) string {
				return c.Path()
			},
		},
	}))
	app.GET("/metrics", echoprometheus.NewHandler())

	app.Use(middleware.Logger())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	// Bind the shared stores once, before the first request lands.
	telemetryStore()
	analysisEngine()
	getAlertManager()

	app.GET("/status", GetAppStatus)

	v1 := app.Group("/api")
	v1.GET("/health", GetHealth)
	v1.GET("/clusters", GetClusterList)
	v1.GET("/clusters/:cluster-id", GetCluster)
	v1.POST("/clusters/:cluster-id/analyze", AnalyzeCluster)
	v1.GET("/clusters/:cluster-id/recommendations", GetClusterRecommendations)
	v1.GET("/dashboard/overview", GetDashboardOverview)
	v1.GET("/alerts", GetAlertList)
	v1.POST("/alerts/:alert-id/resolve", ResolveAlert)
	v1.GET("/cost-analysis", GetCostAnalysis)

	s := http.Server{
		Addr:              ":" + cfg.API_PORT, // local dev server
		Handler:           app,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout) * time.Second,
	}
	if err := s.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
