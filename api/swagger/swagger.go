package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Education Management API",
        "description": "Students, teachers, courses, enrollments, and grading",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh, password management"},
        {"name": "Students", "description": "Student registration and profiles"},
        {"name": "Teachers", "description": "Teacher registration and profiles"},
        {"name": "Courses", "description": "Course catalog and teacher assignment"},
        {"name": "Enrollments", "description": "Enrollment and grading"},
        {"name": "Reports", "description": "Grade report exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate a subject",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "204": {"description": "Revoked"}
                }
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Authentication"],
                "summary": "Change teacher password",
                "responses": {
                    "204": {"description": "Changed"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Register student",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Unique field already in use"}
                }
            }
        },
        "/students/{id}": {
            "get": {"tags": ["Students"], "summary": "Get student", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Students"], "summary": "Update student", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Students"], "summary": "Delete student", "responses": {"204": {"description": "Deleted"}}}
        },
        "/students/{id}/enrollments": {
            "get": {"tags": ["Students"], "summary": "List a student's enrollments", "responses": {"200": {"description": "OK"}}}
        },
        "/teachers": {
            "get": {"tags": ["Teachers"], "summary": "List teachers", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Teachers"], "summary": "Register teacher", "responses": {"201": {"description": "Created"}}}
        },
        "/teachers/{id}": {
            "get": {"tags": ["Teachers"], "summary": "Get teacher", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Teachers"], "summary": "Update teacher", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Teachers"], "summary": "Delete teacher", "responses": {"204": {"description": "Deleted"}}}
        },
        "/teachers/{id}/courses": {
            "get": {"tags": ["Teachers"], "summary": "List a teacher's courses", "responses": {"200": {"description": "OK"}}}
        },
        "/courses": {
            "get": {"tags": ["Courses"], "summary": "List courses", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Courses"], "summary": "Create course", "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate course name"}}}
        },
        "/courses/available": {
            "get": {"tags": ["Courses"], "summary": "List available courses", "responses": {"200": {"description": "OK"}}}
        },
        "/courses/{id}": {
            "get": {"tags": ["Courses"], "summary": "Get course", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Courses"], "summary": "Update course", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Courses"], "summary": "Delete course", "responses": {"204": {"description": "Deleted"}}}
        },
        "/courses/{id}/teacher": {
            "put": {"tags": ["Courses"], "summary": "Assign teacher to course", "responses": {"204": {"description": "Assigned"}}}
        },
        "/courses/{id}/students": {
            "get": {"tags": ["Courses"], "summary": "List students in a course", "responses": {"200": {"description": "OK"}}}
        },
        "/courses/{id}/enrollments": {
            "get": {"tags": ["Courses"], "summary": "List a course's enrollments", "responses": {"200": {"description": "OK"}}}
        },
        "/courses/{id}/grades": {
            "post": {"tags": ["Enrollments"], "summary": "Record grades for a course", "responses": {"200": {"description": "OK"}}}
        },
        "/courses/{id}/report": {
            "get": {"tags": ["Reports"], "summary": "Download grade report (csv or pdf)", "responses": {"200": {"description": "OK"}}}
        },
        "/enrollments": {
            "get": {"tags": ["Enrollments"], "summary": "List enrollments", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Enrollments"], "summary": "Enroll a student", "responses": {"201": {"description": "Created"}, "409": {"description": "Already enrolled or course full"}}}
        },
        "/enrollments/lookup": {
            "get": {"tags": ["Enrollments"], "summary": "Find the enrollment linking a student to a course", "responses": {"200": {"description": "OK"}, "404": {"description": "Not enrolled"}}}
        },
        "/enrollments/{id}": {
            "get": {"tags": ["Enrollments"], "summary": "Get enrollment", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Enrollments"], "summary": "Delete enrollment", "responses": {"204": {"description": "Deleted"}}}
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "enum": ["ADMIN", "TEACHER", "STUDENT"]},
                "username": {"type": "string"},
                "password": {"type": "string"}
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
                "code": {"type": "integer"},
                "message": {"type": "string"}
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
