package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kitai/config"
	"kitai/logger"
	"kitai/models"
	"kitai/utils"
)

// ResumeGenerator runs the important-news pipeline for a session.
type ResumeGenerator interface {
	Generate(ctx context.Context, token string, req models.ResumeRequest) (*models.GenerationResult, error)
}

// ToolRunner runs a single-call text tool for a session.
type ToolRunner interface {
	Run(ctx context.Context, token, identity string, req models.ToolRequest) (*models.GenerationResult, error)
}

const defaultWindow = 24 * time.Hour

// GenerateResumeHandler godoc
// @Summary Genera el resumen de noticias importantes
// @Description Selecciona las noticias más relevantes del rango indicado y redacta el resumen con el proveedor elegido
// @Tags Resumen
// @Accept json
// @Produce json
// @Security SessionToken
// @Param request body models.ResumeRequest true "Proveedor, modelo y rango de fechas"
// @Success 200 {object} models.ResumeResponse "Resultado con logs"
// @Failure 200 {object} models.APIResponse "Fallo controlado (code != 0)"
// @Router /api/resume/generate [post]
func GenerateResumeHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, svc ResumeGenerator) {
	var req models.ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "Cuerpo JSON inválido", map[string]interface{}{})
		return
	}
	from, to, ok := resolveWindow(req.From, req.To)
	if !ok {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "El inicio del rango es posterior al fin", map[string]interface{}{})
		return
	}
	req.From, req.To = from, to

	result, err := svc.Generate(r.Context(), utils.SessionToken(r, cfg.Auth.SessionCookie), req)
	writeResult(w, result, err)
}

// GenerateToolHandler godoc
// @Summary Ejecuta una herramienta de texto
// @Description Concatena los prompts configurados de la herramienta con el texto de entrada y genera la respuesta
// @Tags Herramientas
// @Accept json
// @Produce json
// @Security SessionToken
// @Param identity path string true "Identidad de la herramienta (summarizer, thread, lie-detector, newsletter)"
// @Param request body models.ToolRequest true "Proveedor, modelo y texto"
// @Success 200 {object} models.APIResponse "Resultado con logs"
// @Router /api/tools/{identity}/generate [post]
func GenerateToolHandler(w http.ResponseWriter, r *http.Request, cfg *config.Config, svc ToolRunner) {
	identity := chi.URLParam(r, "identity")
	if !utils.RequireParam(w, "identity", identity) {
		return
	}

	var req models.ToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteCustomErrorResponse(w, models.CodeInvalidParams, "Cuerpo JSON inválido", map[string]interface{}{})
		return
	}

	result, err := svc.Run(r.Context(), utils.SessionToken(r, cfg.Auth.SessionCookie), identity, req)
	writeResult(w, result, err)
}

// writeResult wraps a tool run in the envelope. Failed runs keep their logs in data.
func writeResult(w http.ResponseWriter, result *models.GenerationResult, err error) {
	if err != nil {
		logger.Error("tool run failed", "error", err)
	}
	if result == nil {
		message := models.CodeMessages[models.CodeServerError]
		if err != nil {
			message = err.Error()
		}
		utils.WriteCustomErrorResponse(w, models.CodeServerError, message, map[string]interface{}{})
		return
	}
	if result.Success {
		utils.WriteSuccessResponse(w, result)
		return
	}

	code := result.Code
	if code == models.CodeSuccess {
		code = models.CodeGenerationError
	}
	utils.WriteCustomErrorResponse(w, code, result.Error, result)
}

// resolveWindow fills a missing bound: to defaults to now and from to one
// window before to.
func resolveWindow(from, to time.Time) (time.Time, time.Time, bool) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}
	return from, to, !from.After(to)
}
