package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academic Record API",
        "description": "Student record lifecycle: subjects, grades, semesters and GPA.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Students", "description": "Record initialisation and read queries"},
        {"name": "Subjects", "description": "Open semester enrollment"},
        {"name": "Semesters", "description": "Semester completion"},
        {"name": "Transcripts", "description": "Transcript downloads"}
    ],
    "paths": {
        "/users/me": {
            "get": {
                "tags": ["Students"],
                "summary": "Current semester, active subject count and CGPA (null before the first completion)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SummaryEnvelope"}},
                    "404": {"description": "Record not initialised", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/record": {
            "post": {
                "tags": ["Students"],
                "summary": "Initialise the student record",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/SummaryEnvelope"}},
                    "409": {"description": "Already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List open subjects in enrollment order",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Enroll a subject in the open semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddSubjectRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "VALIDATION_ERROR or INVALID_CREDITS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "DUPLICATE_CODE, NO_OPEN_SEMESTER or CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/subjects/{code}": {
            "delete": {
                "tags": ["Subjects"],
                "summary": "Drop an open subject",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Removed"},
                    "404": {"description": "Not enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "SEMESTER_LOCKED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/complete-semester": {
            "post": {
                "tags": ["Semesters"],
                "summary": "Grade every open subject and archive the semester",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteSemesterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "INCOMPLETE_GRADE_SET or UNKNOWN_GRADE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "CONFLICT", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "EMPTY_SEMESTER", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/history": {
            "get": {
                "tags": ["Students"],
                "summary": "Completed semesters ascending by semester_number",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/history/{semester}": {
            "get": {
                "tags": ["Students"],
                "summary": "One completed semester",
                "parameters": [
                    {"name": "semester", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/advisor-context": {
            "get": {
                "tags": ["Students"],
                "summary": "Read-only snapshot for the advisory collaborator",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/me/transcript": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Download the transcript",
                "produces": ["application/pdf", "text/csv"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        }
    },
    "definitions": {
        "AddSubjectRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "code": {"type": "string"},
                "credits": {"type": "integer", "minimum": 1, "maximum": 6}
            },
            "required": ["name", "code", "credits"]
        },
        "CompleteSemesterRequest": {
            "type": "object",
            "additionalProperties": {"type": "string", "enum": ["O", "A+", "A", "B+", "B", "C", "F"]}
        },
        "StudentSummary": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "current_semester_number": {"type": "integer"},
                "active_subject_count": {"type": "integer"},
                "cgpa": {"type": "number", "x-nullable": true},
                "cumulative_credits": {"type": "integer"},
                "completed_semesters": {"type": "integer"},
                "version": {"type": "integer"}
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
        "SummaryEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StudentSummary"},
                "meta": {"type": "object"}
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
