package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"kitai/config"
	_ "kitai/docs" // swagger document
	"kitai/utils"
)

// Services are the operations exposed over HTTP.
type Services struct {
	Resumes  ResumeGenerator
	Tools    ToolRunner
	Posts    PostLister
	Metadata MetadataFetcher
}

// HealthHandler godoc
// @Summary Estado del servicio
// @Tags Sistema
// @Produce json
// @Success 200 {object} models.APIResponse "OK"
// @Router /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func RegisterRoutes(r chi.Router, cfg *config.Config, svc Services) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/health", HealthHandler)

	r.Post("/api/resume/generate", func(w http.ResponseWriter, r *http.Request) {
		GenerateResumeHandler(w, r, cfg, svc.Resumes)
	})

	r.Post("/api/tools/{identity}/generate", func(w http.ResponseWriter, r *http.Request) {
		GenerateToolHandler(w, r, cfg, svc.Tools)
	})

	r.Get("/api/wordpress/posts", func(w http.ResponseWriter, r *http.Request) {
		ListPostsHandler(w, r, cfg, svc.Posts)
	})

	r.Get("/api/url-metadata", func(w http.ResponseWriter, r *http.Request) {
		URLMetadataHandler(w, r, svc.Metadata)
	})
}
