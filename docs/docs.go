// Package docs registers the OpenAPI document served at /swagger/doc.json.
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
    "paths": {
        "/auth/registration": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Register",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.RegistrationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/driving.RegistrationResponse"}},
                    "400": {"description": "Invalid input", "schema": {"$ref": "#/definitions/http.ValidationErrorResponse"}},
                    "409": {"description": "Username or email taken", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "User login",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.LoginResponse"}},
                    "401": {"description": "Invalid credentials or account disabled", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Refresh token",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.LoginResponse"}},
                    "401": {"description": "Invalid refresh token", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Authentication"],
                "summary": "Logout user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatusResponse"}}
                }
            }
        },
        "/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.UserSummary"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/embedding/add-embedding": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data", "application/json"],
                "produces": ["application/json"],
                "tags": ["Embedding"],
                "summary": "Ingest text and/or a file",
                "parameters": [
                    {"type": "string", "description": "Free text", "name": "text", "in": "formData"},
                    {"type": "file", "description": "PDF, DOCX or TXT file", "name": "file", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.IngestResult"}},
                    "400": {"description": "No text or file provided", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "422": {"description": "File could not be read", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Embedding provider failed", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Vector store unavailable", "schema": {"$ref": "#/definitions/http.PartialWriteResponse"}}
                }
            }
        },
        "/embedding/search-embedding": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Embedding"],
                "summary": "Search the caller's chunks",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/http.TextRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.SearchResponse"}},
                    "400": {"description": "Query is required", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "502": {"description": "Embedding provider failed", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Vector store unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/embedding/points": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Embedding"],
                "summary": "List the caller's points",
                "parameters": [
                    {"type": "integer", "description": "Maximum points to return", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.PointsResponse"}},
                    "503": {"description": "Vector store unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.RegistrationRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string", "example": "jdoe_42"},
                "email": {"type": "string", "example": "jdoe@example.com"},
                "password": {"type": "string", "example": "Str0ngPassw0rd"},
                "password1": {"type": "string", "example": "Str0ngPassw0rd"}
            }
        },
        "domain.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string", "example": "jdoe_42"},
                "password": {"type": "string", "example": "Str0ngPassw0rd"}
            }
        },
        "domain.RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "domain.LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "expires_at": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.UserSummary"}
            }
        },
        "domain.UserSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "active": {"type": "boolean"},
                "last_login_at": {"type": "string"}
            }
        },
        "domain.IngestResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "chunks_saved": {"type": "integer", "example": 3},
                "chunks": {"type": "array", "items": {"type": "string"}}
            }
        },
        "domain.Payload": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "text": {"type": "string"},
                "part": {"type": "integer"}
            }
        },
        "domain.Point": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "payload": {"$ref": "#/definitions/domain.Payload"}
            }
        },
        "driving.RegistrationResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Registration successfully completed"}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid request body"}
            }
        },
        "http.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid input"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "http.PartialWriteResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "vector store unavailable"},
                "chunks_saved": {"type": "integer", "example": 2},
                "chunks_total": {"type": "integer", "example": 5}
            }
        },
        "http.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"}
            }
        },
        "http.TextRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "The cat sat. The cat slept."},
                "limit": {"type": "integer", "example": 5}
            }
        },
        "http.SearchHit": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "score": {"type": "number", "example": 0.87},
                "text": {"type": "string"},
                "part": {"type": "integer"}
            }
        },
        "http.SearchResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "success"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/http.SearchHit"}}
            }
        },
        "http.PointsResponse": {
            "type": "object",
            "properties": {
                "points": {"type": "array", "items": {"$ref": "#/definitions/domain.Point"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Sercha Ingest API",
	Description:      "Per-user document ingestion and semantic retrieval.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
