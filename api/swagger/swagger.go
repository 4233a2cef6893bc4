package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AquaFlow API",
        "description": "Water leak reporting and plumber dispatch platform",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Staff and plumber sessions"},
        {"name": "Leaks", "description": "Leak report intake and triage"},
        {"name": "Plumbers", "description": "Provider directory and availability"},
        {"name": "Services", "description": "Dispatch workflow"},
        {"name": "Sensors", "description": "IoT telemetry ingestion"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/staff/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a staff member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/plumbers/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a plumber",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaks": {
            "get": {
                "tags": ["Leaks"],
                "summary": "List leak reports",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "severity", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Leaks"],
                "summary": "Report a leak",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportLeakRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/leaks/{id}": {
            "get": {
                "tags": ["Leaks"],
                "summary": "Get a leak report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Leaks"],
                "summary": "Update a leak report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateLeakRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Leaks"],
                "summary": "Delete a leak report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/plumbers": {
            "get": {
                "tags": ["Plumbers"],
                "summary": "List plumbers",
                "parameters": [
                    {"name": "verified", "in": "query", "type": "boolean"},
                    {"name": "available", "in": "query", "type": "boolean"},
                    {"name": "service", "in": "query", "type": "string"},
                    {"name": "minRating", "in": "query", "type": "number"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Plumbers"],
                "summary": "Register a plumber",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterPlumberRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plumbers/nearby": {
            "get": {
                "tags": ["Plumbers"],
                "summary": "Find plumbers near a coordinate",
                "parameters": [
                    {"name": "lat", "in": "query", "required": true, "type": "number"},
                    {"name": "lng", "in": "query", "required": true, "type": "number"},
                    {"name": "radius", "in": "query", "type": "number"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/services": {
            "get": {
                "tags": ["Services"],
                "summary": "List service requests",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "priority", "in": "query", "type": "string"},
                    {"name": "plumberId", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Services"],
                "summary": "Open a service request for a leak",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateServiceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/services/{id}/candidates": {
            "get": {
                "tags": ["Services"],
                "summary": "Rank candidate plumbers for a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "urgency", "in": "query", "type": "string", "enum": ["normal", "urgent"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/services/{id}/assign": {
            "put": {
                "tags": ["Services"],
                "summary": "Assign a plumber to a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignPlumberRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/services/{id}/invoice": {
            "get": {
                "tags": ["Services"],
                "summary": "Download the PDF invoice for completed work",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document"}
                }
            }
        },
        "/sensors/readings": {
            "post": {
                "tags": ["Sensors"],
                "summary": "Ingest a sensor reading",
                "parameters": [
                    {"name": "X-API-Key", "in": "header", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IngestReadingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Location": {
            "type": "object",
            "properties": {
                "longitude": {"type": "number"},
                "latitude": {"type": "number"},
                "address": {"type": "string"},
                "building": {"type": "string"},
                "floor": {"type": "string"},
                "room": {"type": "string"}
            },
            "required": ["longitude", "latitude"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "ReportLeakRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "severity": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "location": {"$ref": "#/definitions/Location"},
                "is_emergency": {"type": "boolean"},
                "water_shutoff_required": {"type": "boolean"}
            },
            "required": ["title", "severity", "location"]
        },
        "UpdateLeakRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "severity": {"type": "string"},
                "description": {"type": "string"},
                "water_shutoff_completed": {"type": "boolean"}
            }
        },
        "RegisterPlumberRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "phone": {"type": "string"},
                "services": {"type": "array", "items": {"type": "string"}},
                "location": {"$ref": "#/definitions/Location"},
                "service_radius_km": {"type": "number"}
            },
            "required": ["name", "email", "password"]
        },
        "CreateServiceRequest": {
            "type": "object",
            "properties": {
                "leak_id": {"type": "string"},
                "service_type": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "emergency"]},
                "description": {"type": "string"}
            },
            "required": ["leak_id", "service_type"]
        },
        "AssignPlumberRequest": {
            "type": "object",
            "properties": {
                "plumber_id": {"type": "string"},
                "notes": {"type": "string"}
            },
            "required": ["plumber_id"]
        },
        "IngestReadingRequest": {
            "type": "object",
            "properties": {
                "sensor_id": {"type": "string"},
                "location": {"$ref": "#/definitions/Location"},
                "water_level": {"type": "number"},
                "pressure": {"type": "number"},
                "flow": {"type": "number"},
                "temperature": {"type": "number"},
                "ph": {"type": "number"},
                "battery_level": {"type": "number"},
                "device_status": {"type": "string"},
                "recorded_at": {"type": "string"}
            },
            "required": ["sensor_id", "location"]
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
