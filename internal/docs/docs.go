// Package docs holds the OpenAPI description of the gateway served at /swagger/.
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
        "/info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Process information (show info)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}},
                    "503": {"description": "Control socket unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Dump sessions (show sess)",
                "parameters": [{"type": "string", "name": "id", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/sessions/{id}": {
            "delete": {
                "tags": ["sessions"],
                "summary": "Kill one session",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/errors": {
            "get": {
                "tags": ["process"],
                "summary": "Captured protocol errors (show errors)",
                "parameters": [{"type": "string", "name": "id", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["stats"],
                "summary": "Decoded show stat records",
                "parameters": [
                    {"type": "string", "name": "proxy", "in": "query"},
                    {"type": "string", "name": "type", "in": "query", "enum": ["frontends", "backends", "servers"]},
                    {"type": "string", "name": "server", "in": "query"},
                    {"type": "string", "name": "columns", "in": "query", "description": "comma separated column projection"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object", "additionalProperties": {"type": "string"}}}},
                    "404": {"description": "Unknown column", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}},
                    "502": {"description": "Malformed CSV", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/backends/{backend}/servers/{server}/{action}": {
            "post": {
                "tags": ["servers"],
                "summary": "Enable or disable a server",
                "parameters": [
                    {"type": "string", "name": "backend", "in": "path", "required": true},
                    {"type": "string", "name": "server", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true, "enum": ["enable", "disable"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/backends/{backend}/servers/{server}/agent/{action}": {
            "post": {
                "tags": ["servers"],
                "summary": "Enable or disable a server's agent check",
                "parameters": [
                    {"type": "string", "name": "backend", "in": "path", "required": true},
                    {"type": "string", "name": "server", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true, "enum": ["enable", "disable"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/backends/{backend}/servers/{server}/sessions": {
            "delete": {
                "tags": ["servers"],
                "summary": "Kill every session on a server",
                "parameters": [
                    {"type": "string", "name": "backend", "in": "path", "required": true},
                    {"type": "string", "name": "server", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/backends/{backend}/servers/{server}/weight": {
            "get": {
                "tags": ["servers"],
                "summary": "Current and initial weight",
                "parameters": [
                    {"type": "string", "name": "backend", "in": "path", "required": true},
                    {"type": "string", "name": "server", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            },
            "put": {
                "consumes": ["application/json"],
                "tags": ["servers"],
                "summary": "Set an absolute or relative weight",
                "parameters": [
                    {"type": "string", "name": "backend", "in": "path", "required": true},
                    {"type": "string", "name": "server", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.WeightRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handler.ErrorResponse"}}
                }
            }
        },
        "/frontends/{name}/{action}": {
            "post": {
                "tags": ["frontends"],
                "summary": "Enable, disable or shut down a frontend",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true, "enum": ["enable", "disable", "shutdown"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/frontends/{name}/maxconn": {
            "put": {
                "tags": ["frontends"],
                "summary": "Set a frontend's maxconn",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LimitRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/maps": {
            "get": {
                "tags": ["maps"],
                "summary": "List loaded maps",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/maps/{name}": {
            "get": {
                "tags": ["maps"],
                "summary": "Dump a map, or look up one value",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"type": "string", "name": "value", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            },
            "put": {
                "tags": ["maps"],
                "summary": "Set a map entry",
                "parameters": [
                    {"type": "string", "name": "name", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.MapEntryRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            },
            "delete": {
                "tags": ["maps"],
                "summary": "Remove every entry of a map",
                "parameters": [{"type": "string", "name": "name", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/global/maxconn": {
            "put": {
                "tags": ["global"],
                "summary": "Set the process maxconn",
                "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LimitRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        },
        "/global/rate-limit/{kind}": {
            "put": {
                "tags": ["global"],
                "summary": "Set a process-wide rate limit",
                "parameters": [
                    {"type": "string", "name": "kind", "in": "path", "required": true, "enum": ["connections", "http-compression", "sessions"]},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.LimitRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.CommandResponse"}}}
            }
        }
    },
    "definitions": {
        "handler.CommandResponse": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "output": {"type": "string"}
            }
        },
        "handler.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "string"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "handler.WeightRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "integer"},
                "relative": {"type": "boolean"}
            }
        },
        "handler.LimitRequest": {
            "type": "object",
            "properties": {
                "max": {"type": "integer"},
                "ssl": {"type": "boolean"}
            }
        },
        "handler.MapEntryRequest": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "value": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "airtraffic gateway",
	Description:      "HTTP front for the HAProxy runtime API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
