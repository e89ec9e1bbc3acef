package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CampusLink API",
        "description": "Campus management platform: marketplace, attendance, exams, academic sessions and identifier pools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and logout"},
        {"name": "Marketplace", "description": "Gigs, proposals and orders"},
        {"name": "Academic Sessions", "description": "Session administration and student registration"},
        {"name": "Attendance", "description": "Attendance sessions, QR check-in and register exports"},
        {"name": "Exams", "description": "Exam submission, review and attempts"},
        {"name": "Identifier Pools", "description": "Registration number and staff ID pools"},
        {"name": "Reports", "description": "Signed report downloads"},
        {"name": "Operations", "description": "Health, readiness and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {
                    "200": {"description": "Token pair issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/gigs": {
            "get": {
                "tags": ["Marketplace"],
                "summary": "List gigs with filters",
                "responses": {
                    "200": {"description": "Gig list", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Marketplace"],
                "summary": "Create a gig",
                "responses": {
                    "201": {"description": "Gig created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gigs/{id}": {
            "get": {
                "tags": ["Marketplace"],
                "summary": "Get a gig",
                "responses": {
                    "200": {"description": "Gig", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Marketplace"],
                "summary": "Update a gig (owner or admin)",
                "responses": {
                    "200": {"description": "Updated gig", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the owner"}
                }
            }
        },
        "/proposals/{id}/accept": {
            "post": {
                "tags": ["Marketplace"],
                "summary": "Accept a proposal and open an escrow-funded order",
                "responses": {
                    "200": {"description": "Order opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Proposal no longer pending"}
                }
            }
        },
        "/attendance/sessions/{id}/check-in": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Check in with a session token",
                "responses": {
                    "200": {"description": "Attendance recorded", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Token mismatch"}
                }
            }
        },
        "/exams/{id}/attempts": {
            "post": {
                "tags": ["Exams"],
                "summary": "Start an exam attempt",
                "responses": {
                    "201": {"description": "Attempt started", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Exam not approved or attempts exhausted"}
                }
            }
        },
        "/registration-numbers/available": {
            "get": {
                "tags": ["Identifier Pools"],
                "summary": "List available registration numbers",
                "responses": {
                    "200": {"description": "Available entries", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
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
