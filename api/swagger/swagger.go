package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Hifz Progress API",
        "description": "Memorization progress aggregation and study recommendations",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Progress", "description": "Snapshots, coverage, streaks and reports"},
        {"name": "Recommendations", "description": "Ranked chapters to study next"},
        {"name": "Catalog", "description": "Read-only chapter catalog"},
        {"name": "System", "description": "Process instrumentation"}
    ],
    "paths": {
        "/students/{id}/progress": {
            "get": {
                "tags": ["Progress"],
                "summary": "Get a student's persisted progress snapshot",
                "parameters": [{"$ref": "#/parameters/StudentID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown student or snapshot not computed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/progress/recompute": {
            "post": {
                "tags": ["Progress"],
                "summary": "Rebuild a student's progress snapshot now",
                "parameters": [{"$ref": "#/parameters/StudentID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Progress store unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/progress/refresh": {
            "post": {
                "tags": ["Progress"],
                "summary": "Queue a background recompute",
                "parameters": [{"$ref": "#/parameters/StudentID"}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/progress/chapters": {
            "get": {
                "tags": ["Progress"],
                "summary": "Per-chapter progress breakdown",
                "parameters": [{"$ref": "#/parameters/StudentID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/progress/report": {
            "get": {
                "tags": ["Progress"],
                "summary": "Download a progress report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Report file", "schema": {"type": "file"}}
                }
            }
        },
        "/students/{id}/coverage/{chapter}": {
            "get": {
                "tags": ["Progress"],
                "summary": "De-duplicated coverage of one chapter",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"name": "chapter", "in": "path", "required": true, "type": "integer", "minimum": 1, "maximum": 114}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/streak": {
            "get": {
                "tags": ["Progress"],
                "summary": "Current and longest study streaks",
                "parameters": [{"$ref": "#/parameters/StudentID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/recommendations": {
            "get": {
                "tags": ["Recommendations"],
                "summary": "Recommend chapters to study next",
                "parameters": [
                    {"$ref": "#/parameters/StudentID"},
                    {"name": "limit", "in": "query", "type": "integer", "minimum": 0},
                    {"name": "exclude", "in": "query", "type": "string", "description": "Comma separated chapter indexes"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progress/recompute": {
            "post": {
                "tags": ["Progress"],
                "summary": "Recompute many students; failures are reported per student",
                "parameters": [
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/BatchRecomputeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/catalog/chapters": {
            "get": {
                "tags": ["Catalog"],
                "summary": "List catalog chapters",
                "parameters": [
                    {"name": "section", "in": "query", "type": "integer", "minimum": 1, "maximum": 30}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/system/metrics": {
            "get": {
                "tags": ["System"],
                "summary": "Process instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "StudentID": {"name": "id", "in": "path", "required": true, "type": "string"}
    },
    "definitions": {
        "BatchRecomputeRequest": {
            "type": "object",
            "properties": {
                "student_ids": {"type": "array", "items": {"type": "string"}}
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
