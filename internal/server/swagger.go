package server

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/raysh454/sitecheck/internal/server/docs" // registers the swagger document
)

//go:generate swag init -g internal/server/swagger.go -o internal/server/docs --parseInternal

// @title sitecheck API
// @version 0.1
// @description Create, run and inspect website quality tests (performance, accessibility, security, SEO, browser).
// @contact.name sitecheck maintainers
// @contact.url https://github.com/raysh454/sitecheck
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func (s *Server) mountSwagger(r chi.Router) {
	if !s.cfg.Swagger {
		return
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
