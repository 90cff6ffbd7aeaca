package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/xvariate/auth-api/internal/config"
	authmw "github.com/xvariate/auth-api/internal/middleware"
	"github.com/xvariate/auth-api/internal/modules/auth"
	"github.com/xvariate/auth-api/internal/routes"
)

// New creates and configures the HTTP router: standard chi middleware, the
// route guard, the auth module's API, and a health check.
func New(cfg *config.Config, log *slog.Logger, authService auth.Service) chi.Router {
	router := chi.NewMux()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(60 * time.Second))
	router.Use(authmw.RouteGuard(authService.Sessions(), cfg, log))

	apiConfig := huma.DefaultConfig("Auth API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"session": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.SessionCookieName,
		},
	}
	api := humachi.New(router, apiConfig)

	authHandler := auth.NewHandler(authService, log, cfg)
	authHandler.RegisterRoutes(api)

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        routes.HealthRoute,
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
	}, func(ctx context.Context, input *struct{}) (*struct {
		Body struct {
			Status string `json:"status"`
		}
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status"`
			}
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	return router
}
