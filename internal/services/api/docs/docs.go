// Package docs holds the OpenAPI document served by swaggerkit
// keep it in step with the swagger:route annotations on the handlers
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.0.3",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "paths": {
        "/validate": {
            "post": {
                "tags": ["Templates"],
                "summary": "Validate a template against ARM without deploying it",
                "operationId": "templatesValidate",
                "requestBody": {
                    "required": true,
                    "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ValidationRequest"}}}
                },
                "responses": {
                    "200": {
                        "description": "Template Valid",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.ResultBody"}}}
                    },
                    "400": {
                        "description": "invalid body or validation failure",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.ErrorBody"}}}
                    }
                }
            }
        },
        "/deploy": {
            "post": {
                "tags": ["Templates"],
                "summary": "Test deploy a template into a throwaway resource group",
                "description": "The response is streamed: a 200 is committed at once, single spaces are sent as keep-alive bytes and the final JSON document closes it",
                "operationId": "templatesDeploy",
                "requestBody": {
                    "required": true,
                    "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.DeploymentRequest"}}}
                },
                "responses": {
                    "200": {
                        "description": "Deployment Successful, or a failure body",
                        "content": {"application/json": {"schema": {"oneOf": [
                            {"$ref": "#/components/schemas/domain.ResultBody"},
                            {"$ref": "#/components/schemas/domain.FailureBody"}
                        ]}}}
                    },
                    "400": {
                        "description": "invalid body",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/httpkit.ErrorBody"}}}
                    }
                }
            }
        },
        "/runs": {
            "get": {
                "tags": ["Templates"],
                "summary": "Recent validation and deployment runs, newest first",
                "operationId": "templatesRuns",
                "parameters": [
                    {"name": "limit", "in": "query", "description": "1..200, default 50", "schema": {"type": "integer", "minimum": 1, "maximum": 200}}
                ],
                "responses": {
                    "200": {
                        "description": "ok",
                        "content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/domain.Run"}}}}
                    }
                }
            }
        },
        "/meta/health": {
            "get": {
                "tags": ["Meta"],
                "summary": "Health check",
                "operationId": "metaHealth",
                "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.HealthResponse"}}}}}
            }
        },
        "/meta/ready": {
            "get": {
                "tags": ["Meta"],
                "summary": "Readiness probe with dependency checks",
                "operationId": "metaReady",
                "responses": {
                    "200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ReadyResponse"}}}},
                    "503": {"description": "a check failed", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ReadyResponse"}}}}
                }
            }
        },
        "/meta/version": {
            "get": {
                "tags": ["Meta"],
                "summary": "Build and version info",
                "operationId": "metaVersion",
                "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/version.BuildInfo"}}}}}
            }
        },
        "/meta/service": {
            "get": {
                "tags": ["Meta"],
                "summary": "Service info and uptime",
                "operationId": "metaService",
                "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ServiceResponse"}}}}}
            }
        }
    },
    "components": {
        "schemas": {
            "domain.ValidationRequest": {
                "type": "object",
                "required": ["template", "parameters"],
                "properties": {
                    "template": {"type": "object"},
                    "parameters": {"type": "object"}
                }
            },
            "domain.DeploymentRequest": {
                "type": "object",
                "required": ["template", "parameters"],
                "properties": {
                    "template": {"type": "object"},
                    "parameters": {"type": "object", "properties": {"parameters": {"type": "object", "additionalProperties": {"type": "object", "properties": {"value": {}}}}}},
                    "pull_request": {"oneOf": [{"type": "integer"}, {"type": "string"}], "example": 1234}
                }
            },
            "domain.ResultBody": {
                "type": "object",
                "properties": {"result": {"type": "string", "example": "Deployment Successful"}}
            },
            "domain.FailureBody": {
                "type": "object",
                "properties": {
                    "error": {"type": "string"},
                    "_rgName": {"type": "string"},
                    "command": {"type": "string"},
                    "parameters": {"type": "string", "description": "JSON encoded parameters that were submitted"},
                    "template": {"type": "string", "description": "JSON encoded template that was submitted"}
                }
            },
            "domain.Run": {
                "type": "object",
                "properties": {
                    "id": {"type": "string", "format": "uuid"},
                    "kind": {"type": "string", "enum": ["validate", "deploy"]},
                    "resource_group": {"type": "string"},
                    "pull_request": {"type": "integer"},
                    "status": {"type": "string", "enum": ["succeeded", "failed"]},
                    "error": {"type": "string"},
                    "started_at": {"type": "string", "format": "date-time"},
                    "finished_at": {"type": "string", "format": "date-time"}
                }
            },
            "httpkit.ErrorBody": {
                "type": "object",
                "properties": {"error": {"type": "string"}}
            },
            "http.HealthResponse": {
                "type": "object",
                "properties": {
                    "ok": {"type": "boolean"},
                    "service": {"type": "string"},
                    "started": {"type": "string"},
                    "now": {"type": "string"}
                }
            },
            "http.ReadyResponse": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "enum": ["ok", "degraded", "fail"]},
                    "checks": {"type": "array", "items": {"type": "object", "properties": {
                        "name": {"type": "string"},
                        "status": {"type": "string", "enum": ["ok", "fail", "timeout", "skipped"]},
                        "error": {"type": "string"},
                        "ms": {"type": "integer"}
                    }}},
                    "now": {"type": "string"}
                }
            },
            "http.ServiceResponse": {
                "type": "object",
                "properties": {
                    "name": {"type": "string"},
                    "started": {"type": "string"},
                    "uptime": {"type": "integer"}
                }
            },
            "version.BuildInfo": {
                "type": "object",
                "properties": {
                    "service": {"type": "string"},
                    "version": {"type": "string"},
                    "commit": {"type": "string"},
                    "date": {"type": "string"},
                    "go_version": {"type": "string"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Title:            "armvalidator API",
	Description:      "Validates ARM templates and test deploys them into throwaway resource groups",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
