package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Reunite API",
        "description": "Lost and found reports with automatic match discovery",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Registration and session tokens"},
        {"name": "Items", "description": "Lost and found reports"},
        {"name": "Matches", "description": "Match discovery on reports"},
        {"name": "Notifications", "description": "Per-user match notification feed"},
        {"name": "Exports", "description": "Asynchronous item exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Exchange credentials for an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/LoginResponse"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/UserInfo"}}
                }
            }
        },
        "/items": {
            "get": {
                "tags": ["Items"],
                "summary": "List reports",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["LOST", "FOUND"]},
                    {"name": "status", "in": "query", "type": "string", "enum": ["OPEN", "RESOLVED", "EXPIRED"]},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Items"],
                "summary": "Report a lost or found item",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateItemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Item"}},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/items/{id}": {
            "get": {
                "tags": ["Items"],
                "summary": "Get report detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Item"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/items/{id}/resolve": {
            "post": {
                "tags": ["Items"],
                "summary": "Close a report as resolved",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Item"}},
                    "403": {"description": "Not the owner"},
                    "409": {"description": "Already closed"}
                }
            }
        },
        "/items/{id}/match": {
            "post": {
                "tags": ["Matches"],
                "summary": "Run a matching pass for a report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/MatchPassResult"}}
                }
            }
        },
        "/items/{id}/matches": {
            "get": {
                "tags": ["Matches"],
                "summary": "List recorded matches for a report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/MatchRecord"}}}
                }
            }
        },
        "/items/{id}/matches/preview": {
            "get": {
                "tags": ["Matches"],
                "summary": "Preview match candidates without recording them",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/items/{id}/poster": {
            "get": {
                "tags": ["Items"],
                "summary": "Render a printable flyer for a report",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF payload"}
                }
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List notifications for the current user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "unread", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Count unread notifications",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark one notification as read",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No content"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/notifications/read-all": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark every notification as read",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue an item export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ExportJobResponse"}},
                    "403": {"description": "Admin only"}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Get export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ExportStatusResponse"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File payload"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"}
            },
            "required": ["email", "password", "full_name"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "expires_in": {"type": "integer"},
                "issued_at": {"type": "string", "format": "date-time"},
                "user": {"$ref": "#/definitions/UserInfo"}
            }
        },
        "UserInfo": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "MEMBER"]}
            }
        },
        "CreateItemRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["LOST", "FOUND"]},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"},
                "expires_at": {"type": "string", "format": "date-time"}
            },
            "required": ["type", "title"]
        },
        "Item": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["LOST", "FOUND"]},
                "owner_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "location": {"type": "string"},
                "keywords": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["OPEN", "RESOLVED", "EXPIRED"]},
                "expires_at": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "MatchBreakdown": {
            "type": "object",
            "properties": {
                "category_matched": {"type": "boolean"},
                "location_matched": {"type": "boolean"},
                "keyword_overlap": {"type": "integer"},
                "shared_keywords": {"type": "array", "items": {"type": "string"}}
            }
        },
        "MatchRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "lost_item_id": {"type": "string"},
                "found_item_id": {"type": "string"},
                "score": {"type": "integer"},
                "matched_on": {"$ref": "#/definitions/MatchBreakdown"},
                "status": {"type": "string", "enum": ["NOTIFIED"]},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "MatchPassResult": {
            "type": "object",
            "properties": {
                "item_id": {"type": "string"},
                "pool_size": {"type": "integer"},
                "matches": {"type": "array", "items": {"type": "object"}},
                "notifications_created": {"type": "integer"}
            }
        },
        "Notification": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "type": {"type": "string"},
                "title": {"type": "string"},
                "message": {"type": "string"},
                "lost_item_id": {"type": "string"},
                "found_item_id": {"type": "string"},
                "match_id": {"type": "string"},
                "match_score": {"type": "integer"},
                "match_details": {"$ref": "#/definitions/MatchBreakdown"},
                "read": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "type": {"type": "string", "enum": ["LOST", "FOUND"]},
                "status": {"type": "string", "enum": ["OPEN", "RESOLVED", "EXPIRED"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["format"]
        },
        "ExportJobResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "progress": {"type": "integer"}
            }
        },
        "ExportStatusResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["QUEUED", "PROCESSING", "FINISHED", "FAILED"]},
                "progress": {"type": "integer"},
                "resultUrl": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
