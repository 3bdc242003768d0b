// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["health"], "summary": "Readiness check", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/categories": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "List categories", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Create category", "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}}
        },
        "/categories/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["categories"], "summary": "Get category", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/documents": {"get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "List documents", "parameters": [
            {"type": "integer", "name": "page", "in": "query"},
            {"type": "integer", "name": "limit", "in": "query"},
            {"type": "integer", "name": "category", "in": "query"},
            {"type": "string", "name": "search", "in": "query"}
        ], "responses": {"200": {"description": "OK"}}}},
        "/documents/upload": {"post": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Upload document", "consumes": ["multipart/form-data"], "parameters": [
            {"type": "file", "name": "file", "in": "formData", "required": true},
            {"type": "string", "name": "name", "in": "formData", "required": true},
            {"type": "integer", "name": "categoryId", "in": "formData", "required": true},
            {"type": "string", "name": "description", "in": "formData"}
        ], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}},
        "/documents/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Get document", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Update document", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Delete document", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/documents/{id}/download": {"get": {"security": [{"BearerAuth": []}], "tags": ["documents"], "summary": "Download link", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}},
        "/ws": {"get": {"tags": ["notifications"], "summary": "Event stream", "parameters": [{"type": "string", "name": "token", "in": "query"}], "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized"}, "426": {"description": "Upgrade Required"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DocVault API",
	Description:      "Multi-user document storage with categories and live notifications.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
