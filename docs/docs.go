// Package docs holds the generated OpenAPI document served at
// /swagger/index.html.
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
        "/health": {
            "get": {
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/leads/score": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["leads"],
                "summary": "Score and persist a lead submission",
                "responses": {
                    "201": {"description": "Created"},
                    "401": {"description": "Unauthorized"},
                    "402": {"description": "Monthly lead limit reached"},
                    "429": {"description": "Rate limit exceeded"}
                }
            }
        },
        "/v1/leads/{id}/convert": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["leads"],
                "summary": "Label a lead as converted",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/leads/{id}/deny": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["leads"],
                "summary": "Label a lead as denied",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/v1/ml/auto_threshold": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["ml"],
                "summary": "Recalibrate the decision threshold",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/ml/recalc_pending": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["ml"],
                "summary": "Re-score pending leads with a fresh classifier",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/dashboard": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["analytics"],
                "summary": "Operator dashboard",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/insights": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["analytics"],
                "summary": "Scoring insights over a trailing window",
                "parameters": [{"type": "integer", "name": "days", "in": "query"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/export/leads.csv": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["export"],
                "summary": "Export all leads as CSV",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/v1/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Provision a workspace with its first user",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/v1/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange credentials for tokens",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/webhooks/billing": {
            "post": {
                "tags": ["billing"],
                "summary": "Billing provider callback (HMAC signed)",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid signature"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LeadRank API",
	Description:      "Per-workspace lead scoring, labeling and threshold calibration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
