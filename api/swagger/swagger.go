package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AIMS API",
        "description": "Academic information management: courses, enrollments and the two-stage approval workflow",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Two-step OTP login"},
        {"name": "Courses", "description": "Course catalogue"},
        {"name": "Enrollments", "description": "Student enrollment requests"},
        {"name": "Instructor", "description": "Instructor review queue"},
        {"name": "Advisor", "description": "Advisor review queue"},
        {"name": "Admin", "description": "User, course and report administration"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Start login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OTP challenge opened", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/verify-otp": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Complete login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VerifyOTPRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired OTP"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "Browse the course catalogue",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "code", "in": "query", "type": "string"},
                    {"name": "title", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Add a course owned by the caller (instructor only)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Course code already exists"}
                }
            }
        },
        "/courses/departments": {
            "get": {
                "tags": ["Courses"],
                "summary": "List distinct departments",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/student/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List own enrollments with derived final status",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Request enrollment in a course",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found"},
                    "409": {"description": "Already enrolled in this course"}
                }
            }
        },
        "/student/enrollments/{id}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Drop an enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Enrollment not found"}
                }
            }
        },
        "/instructor/enrollments": {
            "get": {
                "tags": ["Instructor"],
                "summary": "List enrollments in own courses",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "pending", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/instructor/enrollments/{id}/decision": {
            "put": {
                "tags": ["Instructor"],
                "summary": "Approve or reject one enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found"},
                    "409": {"description": "Decision already recorded"}
                }
            }
        },
        "/instructor/enrollments/bulk-decision": {
            "post": {
                "tags": ["Instructor"],
                "summary": "Apply one decision to many enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "Count of rows updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/students": {
            "get": {
                "tags": ["Advisor"],
                "summary": "List assigned students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/enrollments": {
            "get": {
                "tags": ["Advisor"],
                "summary": "List instructor-approved enrollments of assigned students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/advisor/enrollments/{id}/decision": {
            "put": {
                "tags": ["Advisor"],
                "summary": "Approve or reject one instructor-approved enrollment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found"},
                    "409": {"description": "Requires instructor approval first, or already decided"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "tags": ["Admin"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Admin"],
                "summary": "Register a user",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code or email already registered"}
                }
            }
        },
        "/admin/advisor-assignments": {
            "post": {
                "tags": ["Admin"],
                "summary": "Assign an advisor to a student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignAdvisorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Student already has an advisor"}
                }
            }
        },
        "/admin/courses": {
            "get": {
                "tags": ["Admin"],
                "summary": "List courses with enrollment counts",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/enrollments": {
            "get": {
                "tags": ["Admin"],
                "summary": "List all enrollments",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "final_status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/admin/enrollments/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the enrollment listing as csv or pdf",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report file"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Aggregate overview for the dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "instructor", "advisor", "admin"]}
            },
            "required": ["email", "password", "role"]
        },
        "VerifyOTPRequest": {
            "type": "object",
            "properties": {
                "challenge_id": {"type": "string"},
                "otp": {"type": "string"}
            },
            "required": ["challenge_id", "otp"]
        },
        "CreateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"}
            },
            "required": ["course_id"]
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["approved", "rejected"]},
                "comment": {"type": "string"}
            },
            "required": ["decision"]
        },
        "BulkDecisionRequest": {
            "type": "object",
            "properties": {
                "enrollment_ids": {"type": "array", "items": {"type": "string"}},
                "decision": {"type": "string", "enum": ["approved", "rejected"]}
            },
            "required": ["enrollment_ids", "decision"]
        },
        "CreateUserRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "instructor", "advisor", "admin"]},
                "department": {"type": "string"},
                "advisor_id": {"type": "string"}
            },
            "required": ["code", "email", "password", "full_name", "role"]
        },
        "AssignAdvisorRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "advisor_id": {"type": "string"}
            },
            "required": ["student_id", "advisor_id"]
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "title": {"type": "string"},
                "department": {"type": "string"},
                "credits": {"type": "integer"},
                "session": {"type": "string"}
            },
            "required": ["code", "title", "department", "credits", "session"]
        },
        "EnrollmentDetail": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "course_id": {"type": "string"},
                "instructor_status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "advisor_status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "final_status": {"type": "string", "enum": ["pending", "approved", "rejected"]},
                "instructor_comment": {"type": "string"},
                "advisor_comment": {"type": "string"},
                "student_name": {"type": "string"},
                "student_code": {"type": "string"},
                "course_code": {"type": "string"},
                "course_title": {"type": "string"},
                "credits": {"type": "integer"},
                "session": {"type": "string"},
                "enrolled_date": {"type": "string"},
                "created_at": {"type": "string"}
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
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"}
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
