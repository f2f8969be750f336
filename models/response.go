package models

// Response codes
const (
	CodeSuccess = 0

	// client errors (1000-1999)
	CodeInvalidParams     = 1000
	CodeMissingParams     = 1001
	CodeUnauthenticated   = 1002
	CodeNoOrganization    = 1003
	CodeAPIKeyMissing     = 1004
	CodeToolConfigMissing = 1005
	CodeNoDocuments       = 1006
	CodeUnsupportedModel  = 1007

	// server errors (2000-2999)
	CodeServerError        = 2000
	CodeDatabaseError      = 2001
	CodeGenerationError    = 2002
	CodeContentSourceError = 2003
	CodeThirdPartyAPIError = 2005
)

var CodeMessages = map[int]string{
	CodeSuccess:            "success",
	CodeInvalidParams:      "Parámetros inválidos",
	CodeMissingParams:      "Faltan parámetros obligatorios",
	CodeUnauthenticated:    "Usuario no autenticado",
	CodeNoOrganization:     "El usuario no pertenece a ninguna organización",
	CodeAPIKeyMissing:      "No hay una API key activa para el proveedor",
	CodeToolConfigMissing:  "No se encontró la configuración de la herramienta",
	CodeNoDocuments:        "No hay noticias en el rango indicado",
	CodeUnsupportedModel:   "Proveedor no soportado",
	CodeServerError:        "Error interno del servidor",
	CodeDatabaseError:      "Error de base de datos",
	CodeGenerationError:    "Error al generar el contenido",
	CodeContentSourceError: "Error al obtener el contenido",
	CodeThirdPartyAPIError: "Error del proveedor externo",
}

// NewSuccessResponse wraps data in the success envelope.
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Code:    CodeSuccess,
		Message: CodeMessages[CodeSuccess],
		Data:    data,
	}
}

// NewErrorResponse wraps data with the code's default message.
func NewErrorResponse(code int, data interface{}) APIResponse {
	message, exists := CodeMessages[code]
	if !exists {
		message = "Error desconocido"
	}
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewCustomErrorResponse wraps data with an explicit message.
func NewCustomErrorResponse(code int, message string, data interface{}) APIResponse {
	return APIResponse{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
