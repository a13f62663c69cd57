// Package docs holds the swagger document served under /swagger. Regenerate with `swag init` after changing handler annotations.
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
        "/api/health": {
            "get": {
                "description": "检查服务状态",
                "produces": ["application/json"],
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/quiz-attempts": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["测验作答"],
                "summary": "作答列表",
                "parameters": [
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "每页数量", "name": "limit", "in": "query"},
                    {"enum": ["submittedAt", "scoreScaled10"], "type": "string", "description": "排序字段", "name": "sortBy", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "description": "排序方向", "name": "order", "in": "query"},
                    {"type": "integer", "description": "学生ID", "name": "studentId", "in": "query"},
                    {"type": "integer", "description": "课时ID", "name": "lessonId", "in": "query"},
                    {"type": "integer", "description": "测验ID", "name": "quizId", "in": "query"},
                    {"enum": ["in_progress", "submitted", "graded"], "type": "string", "description": "状态", "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["测验作答"],
                "summary": "开始测验作答",
                "parameters": [
                    {"description": "课时与测验", "name": "attempt", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.CreateAttemptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/quiz-attempts/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "学生只能查看自己的作答，分数和正确答案按课时设置显示",
                "produces": ["application/json"],
                "tags": ["测验作答"],
                "summary": "获取作答详情",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/quiz-attempts/{id}/submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["测验作答"],
                "summary": "提交测验作答",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/quiz-attempts/{id}/answers": {
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "同一题目再次作答会替换之前的选项，并重新计算分数",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["测验作答"],
                "summary": "保存答案",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true},
                    {"description": "题目与选项", "name": "answer", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.UpsertAnswerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/quiz-attempts/{id}/answers/{questionId}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["测验作答"],
                "summary": "删除答案",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "题目ID", "name": "questionId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "service.CreateAttemptRequest": {
            "type": "object",
            "required": ["lessonId", "quizId"],
            "properties": {
                "lessonId": {"type": "integer", "minimum": 1},
                "quizId": {"type": "integer", "minimum": 1}
            }
        },
        "service.UpsertAnswerRequest": {
            "type": "object",
            "required": ["optionId", "questionId"],
            "properties": {
                "optionId": {"type": "integer", "minimum": 1},
                "questionId": {"type": "integer", "minimum": 1}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "LMS 测验作答 API",
	Description:      "课时测验的作答、答案保存与评分服务。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
