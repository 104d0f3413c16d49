// Package docs registers the Swagger spec served at /docs. Regenerate with
// `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Safecheck"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/jobs/inactivity-check": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Scans all users and emails emergency contacts of users inactive for 48 hours or more, at most once per contact per 24 hours. Requires the JOB_TRIGGER_TOKEN bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Run the inactivity check",
                "parameters": [
                    {
                        "description": "Run options",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/handler.InactivityCheckRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/notifications.Summary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "post": {
                "description": "Creates the user for device_id, or returns the existing one. A non-empty display_name updates the stored name.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a device",
                "parameters": [
                    {
                        "description": "Device registration",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.RegisterUserRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.UserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/users/{userID}/check-ins": {
            "post": {
                "description": "Records a check-in for the user at the current server time.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Check in",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.CheckIn"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/users/{userID}/status": {
            "get": {
                "description": "Returns safe, warning or danger with elapsed time since the last check-in.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Liveness status",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.StatusResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/users/{userID}/contacts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "List emergency contacts",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.EmergencyContact"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            },
            "post": {
                "description": "The email must contain '@'; deliverability is not checked.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["contacts"],
                "summary": "Add an emergency contact",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true},
                    {
                        "description": "Contact",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.AddContactRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.EmergencyContact"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/users/{userID}/contacts/{contactID}": {
            "delete": {
                "tags": ["contacts"],
                "summary": "Remove an emergency contact",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true},
                    {"type": "string", "description": "Contact ID", "name": "contactID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.AddContactRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "handler.InactivityCheckRequest": {
            "type": "object",
            "properties": {
                "dry_run": {"type": "boolean"},
                "now": {"type": "string", "description": "Evaluation time (RFC3339); dry runs only"},
                "timeout_seconds": {"type": "integer"},
                "workers": {"type": "integer"}
            }
        },
        "handler.RegisterUserRequest": {
            "type": "object",
            "properties": {
                "device_id": {"type": "string"},
                "display_name": {"type": "string"}
            }
        },
        "handler.StatusResponse": {
            "type": "object",
            "properties": {
                "checked_in_today": {"type": "boolean"},
                "contact_count": {"type": "integer"},
                "elapsed_days": {"type": "number"},
                "last_check_in": {"type": "string"},
                "status": {"type": "string", "enum": ["safe", "warning", "danger"]},
                "time_remaining_seconds": {"type": "integer"},
                "user_id": {"type": "string"}
            }
        },
        "handler.UserResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "device_id": {"type": "string"},
                "display_name": {"type": "string"},
                "id": {"type": "string"}
            }
        },
        "models.CheckIn": {
            "type": "object",
            "properties": {
                "checked_in_at": {"type": "string"},
                "id": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "models.EmergencyContact": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "notifications.Result": {
            "type": "object",
            "properties": {
                "contact_email": {"type": "string"},
                "contact_id": {"type": "string"},
                "error": {"type": "string"},
                "outcome": {"type": "string", "enum": ["sent", "send_failed", "record_failed", "skipped", "candidate"]},
                "user_id": {"type": "string"}
            }
        },
        "notifications.Summary": {
            "type": "object",
            "properties": {
                "dry_run": {"type": "boolean"},
                "duration_ms": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}},
                "failed": {"type": "integer"},
                "now": {"type": "string"},
                "partial": {"type": "boolean"},
                "processed": {"type": "integer"},
                "record_failures": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/notifications.Result"}},
                "sent": {"type": "integer"},
                "skipped": {"type": "integer"},
                "started_at": {"type": "string"},
                "users_escalated": {"type": "integer"},
                "users_scanned": {"type": "integer"},
                "users_skipped": {"type": "integer"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "detail": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Safecheck API",
	Description:      "Check-in API and inactivity job for the Safecheck dead man's switch. Users who stop checking in for 48 hours have their emergency contacts emailed, at most once per contact per 24 hours.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
