package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "QOLAE Readers Dashboard API",
        "description": "Reader onboarding, NDA signing and report review workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Two-step reader login"},
        {"name": "Readers", "description": "Reader accounts and access lifecycle"},
        {"name": "NDA", "description": "Confidentiality agreement signing wizard"},
        {"name": "Assignments", "description": "Report assignment and correction"},
        {"name": "Payments", "description": "Payment lifecycle"},
        {"name": "Activity", "description": "Append-only activity log"},
        {"name": "Dashboard", "description": "Reader summary aggregates"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Start reader login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Verification code issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/verify-code": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Complete reader login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyCodeRequest"}}
                ],
                "responses": {
                    "200": {"description": "Session issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired code"},
                    "429": {"description": "Too many attempts"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Logout current session",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/readers": {
            "get": {
                "tags": ["Readers"],
                "summary": "List readers",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "nda_signed", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Readers"],
                "summary": "Invite a reader",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateReaderRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/readers/{pin}": {
            "get": {
                "tags": ["Readers"],
                "summary": "Get reader",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "pin", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Readers"],
                "summary": "Update reader profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "pin", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateReaderRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/readers/{pin}/status": {
            "patch": {
                "tags": ["Readers"],
                "summary": "Change reader access status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "pin", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateReaderStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/nda/continue-to-sign": {
            "post": {
                "tags": ["NDA"],
                "summary": "Enter the signing step",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "303": {"description": "Redirect into the wizard"}
                }
            }
        },
        "/nda/preview": {
            "post": {
                "tags": ["NDA"],
                "summary": "Generate the signed preview",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/x-www-form-urlencoded", "multipart/form-data"],
                "parameters": [
                    {"name": "signatureData", "in": "formData", "type": "string"},
                    {"name": "acknowledgmentConfirmed", "in": "formData", "type": "boolean"}
                ],
                "responses": {
                    "303": {"description": "Redirect to preview step, or back with an error tag"}
                }
            }
        },
        "/nda/preview-pdf": {
            "get": {
                "tags": ["NDA"],
                "summary": "Serve the cached preview PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf"],
                "responses": {
                    "200": {"description": "PDF bytes"},
                    "404": {"description": "No live preview"}
                }
            }
        },
        "/nda/sign": {
            "post": {
                "tags": ["NDA"],
                "summary": "Finalize the agreement",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/x-www-form-urlencoded"],
                "parameters": [
                    {"name": "confirmFromPreview", "in": "formData", "type": "boolean"}
                ],
                "responses": {
                    "303": {"description": "Redirect to confirmation, or back with an error tag"}
                }
            }
        },
        "/nda/status": {
            "get": {
                "tags": ["NDA"],
                "summary": "Agreement status",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/NdaStatusResponse"}}
                }
            }
        },
        "/nda/download": {
            "get": {
                "tags": ["NDA"],
                "summary": "Download a signed agreement by token",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF bytes"},
                    "401": {"description": "Expired or invalid token"}
                }
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/mine": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List own assignments",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/correction": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Submit a corrected report",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitCorrectionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already approved"}
                }
            }
        },
        "/assignments/{id}/approve": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Approve a submitted correction",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/payment": {
            "patch": {
                "tags": ["Payments"],
                "summary": "Advance a payment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePaymentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition"}
                }
            }
        },
        "/activity": {
            "get": {
                "tags": ["Activity"],
                "summary": "List activity entries",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Reader dashboard summary",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/DashboardSummary"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "VerifyCodeRequest": {
            "type": "object",
            "properties": {
                "pin": {"type": "string"},
                "code": {"type": "string"}
            },
            "required": ["pin", "code"]
        },
        "CreateReaderRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["FIRST_REVIEWER", "SECOND_REVIEWER"]}
            },
            "required": ["full_name", "email", "role"]
        },
        "UpdateReaderRequest": {
            "type": "object",
            "properties": {
                "full_name": {"type": "string"}
            },
            "required": ["full_name"]
        },
        "UpdateReaderStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "ACTIVE", "ON_HOLD", "SUSPENDED"]},
                "reason": {"type": "string"}
            },
            "required": ["status"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "reader_pin": {"type": "string"},
                "reviewer_role": {"type": "string"},
                "case_reference": {"type": "string"},
                "document_path": {"type": "string"},
                "deadline": {"type": "string"}
            },
            "required": ["reader_pin", "reviewer_role", "case_reference", "document_path"]
        },
        "SubmitCorrectionRequest": {
            "type": "object",
            "properties": {
                "correction_path": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["correction_path"]
        },
        "UpdatePaymentRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["PENDING", "APPROVED", "PROCESSING", "PAID", "ON_HOLD"]},
                "amount": {"type": "number"},
                "reference": {"type": "string"}
            },
            "required": ["status"]
        },
        "NdaStatusResponse": {
            "type": "object",
            "properties": {
                "signed": {"type": "boolean"},
                "signed_at": {"type": "string"},
                "version": {"type": "string"},
                "content_hash": {"type": "string"},
                "download_url": {"type": "string"}
            }
        },
        "DashboardSummary": {
            "type": "object",
            "properties": {
                "pin": {"type": "string"},
                "open_assignments": {"type": "integer"},
                "assignments_completed": {"type": "integer"},
                "pending_corrections": {"type": "integer"},
                "avg_turnaround_hours": {"type": "number"},
                "total_earnings": {"type": "number"},
                "unpaid_amount": {"type": "number"},
                "nda_signed": {"type": "boolean"},
                "compliance": {"type": "string"}
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
