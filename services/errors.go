package services

import (
	"errors"
	"fmt"

	"kitai/llm"
	"kitai/logger"
	"kitai/models"
)

// Failures that end a run with {success:false} instead of an error return.
// Their messages are shown to the user as-is.
var (
	ErrAuthentication    = errors.New("Usuario no autenticado")
	ErrNoOrganization    = errors.New("El usuario no pertenece a ninguna organización")
	ErrAPIKeyMissing     = errors.New("No hay una API key activa para el proveedor")
	ErrAPIKeyEmpty       = errors.New("La API key está vacía o no es válida")
	ErrToolConfigMissing = errors.New("No se encontró la configuración de la herramienta")
	ErrNoDocuments       = errors.New("No hay noticias en el rango indicado")
	ErrNoSelection       = errors.New("El modelo no seleccionó ninguna noticia válida")
	ErrContentSource     = errors.New("Error al obtener el contenido")
	ErrEmptyInput        = errors.New("El texto de entrada está vacío")
	ErrModelMissing      = errors.New("No se indicó el modelo")
)

// IsHandledFailure reports whether err belongs to the categories converted
// into a failed result rather than propagated.
func IsHandledFailure(err error) bool {
	for _, target := range []error{
		ErrAuthentication, ErrNoOrganization, ErrAPIKeyMissing, ErrAPIKeyEmpty,
		ErrToolConfigMissing, ErrNoDocuments, ErrContentSource, ErrEmptyInput,
		ErrModelMissing, ErrNoSelection,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ResponseCode maps a run failure to the envelope code used by the HTTP layer.
func ResponseCode(err error) int {
	switch {
	case err == nil:
		return models.CodeSuccess
	case errors.Is(err, ErrAuthentication):
		return models.CodeUnauthenticated
	case errors.Is(err, ErrNoOrganization):
		return models.CodeNoOrganization
	case errors.Is(err, ErrAPIKeyMissing), errors.Is(err, ErrAPIKeyEmpty):
		return models.CodeAPIKeyMissing
	case errors.Is(err, ErrToolConfigMissing):
		return models.CodeToolConfigMissing
	case errors.Is(err, ErrNoDocuments):
		return models.CodeNoDocuments
	case errors.Is(err, ErrEmptyInput), errors.Is(err, ErrModelMissing):
		return models.CodeMissingParams
	case errors.Is(err, ErrContentSource):
		return models.CodeContentSourceError
	case isUnsupported(err):
		return models.CodeUnsupportedModel
	case isUpstream(err):
		return models.CodeThirdPartyAPIError
	default:
		return models.CodeGenerationError
	}
}

func failed(trail *logger.Trail, err error) *models.GenerationResult {
	return &models.GenerationResult{
		Success: false,
		Error:   err.Error(),
		Logs:    trail.Events(),
		Code:    ResponseCode(err),
	}
}

func missingKey(provider string) error {
	return fmt.Errorf("%w (%s)", ErrAPIKeyMissing, provider)
}

func isUnsupported(err error) bool {
	var target *llm.UnsupportedProviderError
	return errors.As(err, &target)
}

func isUpstream(err error) bool {
	var target *llm.UpstreamError
	return errors.As(err, &target)
}
