// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/resume/generate": {
            "post": {
                "security": [{"SessionToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Resumen"],
                "summary": "Genera el resumen de noticias importantes",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ResumeRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.ResumeResponse"}}}
            }
        },
        "/api/tools/{identity}/generate": {
            "post": {
                "security": [{"SessionToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Herramientas"],
                "summary": "Ejecuta una herramienta de texto",
                "parameters": [
                    {"type": "string", "description": "Identidad de la herramienta", "name": "identity", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.ToolRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/api/wordpress/posts": {
            "get": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["Contenido"],
                "summary": "Lista las noticias de la organización",
                "parameters": [
                    {"type": "string", "description": "Inicio (RFC3339 o AAAA-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "Fin (RFC3339 o AAAA-MM-DD)", "name": "to", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/api/url-metadata": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Contenido"],
                "summary": "Obtiene los metadatos de un enlace",
                "parameters": [{"type": "string", "description": "URL", "name": "url", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sistema"],
                "summary": "Estado del servicio",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.APIResponse"}}}
            }
        }
    },
    "definitions": {
        "models.APIResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0},
                "message": {"type": "string", "example": "success"},
                "data": {}
            }
        },
        "models.ResumeRequest": {
            "type": "object",
            "properties": {
                "provider": {"type": "string", "example": "openai"},
                "model": {"type": "string", "example": "gpt-4o"},
                "from": {"type": "string", "example": "2025-01-01T00:00:00Z"},
                "to": {"type": "string", "example": "2025-01-02T00:00:00Z"},
                "posts": {"type": "array", "items": {"type": "object"}}
            }
        },
        "models.ToolRequest": {
            "type": "object",
            "properties": {
                "provider": {"type": "string", "example": "anthropic"},
                "model": {"type": "string", "example": "claude-sonnet-4-5"},
                "input": {"type": "string", "example": "Texto a resumir"}
            }
        },
        "models.ResumeResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0},
                "message": {"type": "string", "example": "success"},
                "data": {
                    "type": "object",
                    "properties": {
                        "success": {"type": "boolean"},
                        "resume": {"type": "string"},
                        "error": {"type": "string"},
                        "selected": {"type": "array", "items": {"type": "object"}},
                        "logs": {"type": "array", "items": {"type": "object"}}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "SessionToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "KIT.AI API",
	Description:      "Herramientas editoriales con IA: resumen de noticias importantes, herramientas de texto y metadatos de enlaces",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
