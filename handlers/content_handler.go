package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kitai/config"
	"kitai/logger"
	"kitai/models"
	"kitai/services"
	"kitai/utils"
)

// PostLister lists the posts of the caller's organization.
type PostLister interface {
	List(ctx context.Context, token string, from, to time.Time) ([]models.SourceDocument, error)
}

// MetadataFetcher resolves link previews.
type MetadataFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.URLMetadata, error)
}

// ListPostsHandler godoc
// @Summary Lista las noticias de la organización
// @Description Devuelve las noticias publicadas en el rango indicado (por defecto, las últimas 24 horas)
// @Tags Contenido
// @Produce json
// @Security SessionToken
// @Param from query string false "Inicio (RFC3339 o AAAA-MM-DD)"
// @Param to query string false "Fin (RFC3339 o AAAA-MM-DD)"
// @Success 200 {object} models.APIResponse "Noticias"
// @Router /api/wordpress/posts [get]
func ListPostsHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, svc PostLister) {
	from, okFrom := parseTimeParam(r.URL.Query().Get("from"))
	to, okTo := parseTimeParam(r.URL.Query().Get("to"))
	if !okFrom || !okTo {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "Formato de fecha inválido", map[string]interface{}{})
		return
	}
	from, to, ok := resolveWindow(from, to)
	if !ok {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "El inicio del rango es posterior al fin", map[string]interface{}{})
		return
	}

	posts, err := svc.List(r.Context(), utils.SessionToken(r, cfg.Auth.SessionCookie), from, to)
	if err != nil {
		if !services.IsHandledFailure(err) {
			logger.Error("listing posts failed", "error", err)
		}
		utils.WriteCustomErrorResponse(w, services.ResponseCode(err), err.Error(), map[string]interface{}{})
		return
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"from":  from,
		"to":    to,
		"total": len(posts),
		"posts": posts,
	})
}

// URLMetadataHandler godoc
// @Summary Obtiene los metadatos de un enlace
// @Description Título, descripción, imagen y autor de una página; los posts de Twitter/X se resuelven con oEmbed
// @Tags Contenido
// @Produce json
// @Param url query string true "URL a analizar"
// @Success 200 {object} models.APIResponse "Metadatos"
// @Router /api/url-metadata [get]
func URLMetadataHandler(w http.ResponseWriter, r *http.Request, svc MetadataFetcher) {
	target := r.URL.Query().Get("url")
	if !utils.RequireParam(w, "url", target) {
		return
	}

	meta, err := svc.Fetch(r.Context(), target)
	if err != nil {
		if errors.Is(err, services.ErrInvalidURL) {
			utils.WriteErrorResponse(w, models.CodeInvalidParams, map[string]interface{}{"url": target})
			return
		}
		logger.Warn("fetching url metadata failed", "url", target, "error", err)
		utils.WriteCustomErrorResponse(w, models.CodeThirdPartyAPIError, err.Error(), map[string]interface{}{})
		return
	}
	utils.WriteSuccessResponse(w, meta)
}

// parseTimeParam accepts RFC3339 or a plain date. Empty yields the zero time.
func parseTimeParam(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
