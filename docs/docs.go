// Package docs registers the swagger document served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/auth/register": {
            "post": {
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "User registered", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Email already exists", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh access token",
                "parameters": [{"in": "body", "name": "request", "schema": {"$ref": "#/definitions/dto.RefreshTokenRequest"}}],
                "responses": {
                    "200": {"description": "Token refreshed", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid, expired or revoked token", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/user": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Get current user",
                "responses": {"200": {"description": "Current user", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Update current user",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateProfileRequest"}}],
                "responses": {"200": {"description": "Updated user", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/auth/session": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Get session",
                "responses": {"200": {"description": "Session", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {"200": {"description": "Logged out", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/auth/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "Users", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/auth/admin/users/role-by-email": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Update user role by email",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateRoleRequest"}}],
                "responses": {
                    "200": {"description": "Updated user", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/certificates": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "List certificates",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "query"},
                    {"type": "string", "name": "course_id", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Certificates", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Issue certificate",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.CreateCertificateRequest"}}],
                "responses": {
                    "200": {"description": "Certificate already existed", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "201": {"description": "Certificate issued", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "User is not enrolled", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "422": {"description": "Course not completed", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/certificates/check": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Check certificate",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "query", "required": true},
                    {"type": "string", "name": "course_id", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "Certificate or null", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/api/certificates/recent": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Recent certificates",
                "parameters": [{"type": "integer", "name": "limit", "in": "query"}],
                "responses": {"200": {"description": "Certificates", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/api/certificates/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Get certificate",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Certificate", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Certificate not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Update certificate",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateCertificateRequest"}}
                ],
                "responses": {"200": {"description": "Updated certificate", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Delete certificate",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deleted", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/api/certificates/{id}/html": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/html"],
                "tags": ["certificates"],
                "summary": "Certificate HTML",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "HTML page", "schema": {"type": "string"}}}
            }
        },
        "/api/certificates/{id}/png": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["image/png"],
                "tags": ["certificates"],
                "summary": "Certificate image",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "PNG image", "schema": {"type": "file"}}}
            }
        },
        "/api/certificates/batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Start certificate batch",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.StartBatchRequest"}}],
                "responses": {"202": {"description": "Batch accepted", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        },
        "/api/certificates/batch/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Get certificate batch",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Batch state", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Cancel certificate batch",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Cancellation requested", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "Job was not started as cancellable", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/certificates/batch/{id}/ws": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["certificates"],
                "summary": "Subscribe to batch progress",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "token", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols to WebSocket"}}
            }
        },
        "/api/courses": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["courses"],
                "summary": "List courses",
                "responses": {"200": {"description": "Courses", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["courses"],
                "summary": "Create course",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.CreateCourseRequest"}}],
                "responses": {
                    "201": {"description": "Course created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/courses/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["courses"],
                "summary": "Get course",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Course", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Course not found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/enrollments": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"type": "string", "name": "user_id", "in": "query"},
                    {"type": "string", "name": "course_id", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "Enrollments", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["enrollments"],
                "summary": "Enroll in course",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.EnrollRequest"}}],
                "responses": {
                    "201": {"description": "Enrollment created", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "Already enrolled", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/enrollments/progress": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["enrollments"],
                "summary": "Update progress",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateProgressRequest"}}],
                "responses": {
                    "200": {"description": "Updated enrollment", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "409": {"description": "Progress would decrease", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/enrollments/{userId}/{courseId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["enrollments"],
                "summary": "Get enrollment",
                "parameters": [
                    {"type": "string", "name": "userId", "in": "path", "required": true},
                    {"type": "string", "name": "courseId", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "Enrollment", "schema": {"$ref": "#/definitions/dto.APIResponse"}}}
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"}
            }
        },
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/dto.ErrorDetail"},
                "timestamp": {"type": "string", "format": "date-time"}
            }
        },
        "dto.ErrorDetail": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "field": {"type": "string"},
                "severity": {"type": "string"},
                "details": {}
            }
        },
        "dto.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "name"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "name": {"type": "string"},
                "avatar_url": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "dto.RefreshTokenRequest": {
            "type": "object",
            "properties": {"refresh_token": {"type": "string"}}
        },
        "dto.UpdateProfileRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "avatar_url": {"type": "string"}
            }
        },
        "dto.UpdateRoleRequest": {
            "type": "object",
            "required": ["email", "role"],
            "properties": {
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "admin"]}
            }
        },
        "dto.CreateCertificateRequest": {
            "type": "object",
            "required": ["user_id", "course_id"],
            "properties": {
                "user_id": {"type": "string"},
                "course_id": {"type": "string"},
                "user_name": {"type": "string"},
                "course_name": {"type": "string"},
                "issue_date": {"type": "string", "format": "date-time"}
            }
        },
        "dto.UpdateCertificateRequest": {
            "type": "object",
            "properties": {
                "user_name": {"type": "string"},
                "course_name": {"type": "string"},
                "course_hours": {"type": "integer"},
                "issue_date": {"type": "string", "format": "date-time"},
                "expiry_date": {"type": "string", "format": "date-time"},
                "certificate_url": {"type": "string"}
            }
        },
        "dto.StartBatchRequest": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/dto.BatchItemRequest"}},
                "course_id": {"type": "string"},
                "only_eligible": {"type": "boolean"},
                "cancellable": {"type": "boolean"},
                "concurrency": {"type": "integer"}
            }
        },
        "dto.BatchItemRequest": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "course_id": {"type": "string"},
                "user_name": {"type": "string"},
                "course_name": {"type": "string"}
            }
        },
        "dto.CreateCourseRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "duration": {"type": "string", "example": "40h"},
                "instructor": {"type": "string"}
            }
        },
        "dto.EnrollRequest": {
            "type": "object",
            "required": ["course_id"],
            "properties": {
                "user_id": {"type": "string"},
                "course_id": {"type": "string"}
            }
        },
        "dto.UpdateProgressRequest": {
            "type": "object",
            "required": ["user_id", "course_id", "progress"],
            "properties": {
                "user_id": {"type": "string"},
                "course_id": {"type": "string"},
                "progress": {"type": "integer", "minimum": 0, "maximum": 100}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "LMS Certificate API",
	Description:      "Course enrollment and certificate issuance service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
