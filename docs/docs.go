// Package docs is generated by swag from the annotations in cmd/journal.
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
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/readyz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check, pings the database",
                "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}
            }
        },
        "/api/v1/trades": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["trades"],
                "summary": "List trades",
                "parameters": [
                    {"type": "string", "name": "accountId", "in": "query"},
                    {"type": "string", "name": "startDate", "in": "query"},
                    {"type": "string", "name": "endDate", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "string", "name": "nextToken", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad request"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["trades"],
                "summary": "Create one trade or a bulk batch",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "Idempotent replay"}, "201": {"description": "Created"}, "400": {"description": "Bad request"}}
            }
        },
        "/api/v1/trades/{trade_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Get trade",
                "parameters": [{"type": "string", "name": "trade_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Update trade",
                "parameters": [{"type": "string", "name": "trade_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Delete trade",
                "parameters": [{"type": "string", "name": "trade_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/api/v1/trades/bulk-delete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Delete several trades",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/trades/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Export trades as csv or json",
                "parameters": [
                    {"type": "string", "name": "format", "in": "query"},
                    {"type": "string", "name": "accountId", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/trades/extract": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["trades"],
                "summary": "Extract trades from a screenshot",
                "responses": {"200": {"description": "OK"}, "413": {"description": "Image too large"}, "502": {"description": "Upstream error"}, "504": {"description": "Upstream timeout"}}
            }
        },
        "/api/v1/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Get trade statistics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/stats/rebuild": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["stats"],
                "summary": "Rebuild trade statistics from stored trades",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/accounts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "List accounts", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["accounts"], "summary": "Create account", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/goals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "List goals", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["goals"], "summary": "Create goal", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/rules": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["rules"], "summary": "List rules", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["rules"], "summary": "Create rule", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/uploads": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["uploads"], "summary": "Presigned image upload URL", "responses": {"200": {"description": "OK"}, "503": {"description": "Storage not configured"}}}
        },
        "/api/v1/system-settings/switches": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settings"], "summary": "List feature switches", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/analytics": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["analytics"], "summary": "Trade breakdowns by hour, day, symbol or strategy", "parameters": [{"type": "string", "description": "hourly, daily-win-rate, symbol-distribution or strategy-distribution", "name": "type", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown type"}}}
        },
        "/api/v1/rules-goals": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["rules"], "summary": "Rules and goals in one read", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Current user and preferences", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/profile/preferences": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Update preferences", "responses": {"200": {"description": "OK"}, "400": {"description": "Validation error"}}}
        },
        "/api/v1/saved-options": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Saved pick-list options", "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/saved-options/{category}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["profile"], "summary": "Add a saved option", "parameters": [{"type": "string", "name": "category", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Unknown category"}}}
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
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Trade Journal API",
	Description:      "Trade journal with incrementally maintained per-user trading statistics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
