// Package docs 注册 swagger 文档，接口变更时同步修改 docTemplate
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
                "produces": ["application/json"],
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "注册新用户",
                "parameters": [
                    {"description": "用户注册信息", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "创建成功", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "请求参数错误", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "用户名或邮箱已被注册", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["认证"],
                "summary": "用户登录",
                "parameters": [
                    {"description": "用户登录凭据", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controller.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "成功", "schema": {"$ref": "#/definitions/util.Response"}},
                    "401": {"description": "未授权", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/modules": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["模块"],
                "summary": "模块列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/modules/{id}/start": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["模块"],
                "summary": "开始或继续作答",
                "parameters": [
                    {"type": "integer", "description": "模块ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "恢复已有作答", "schema": {"$ref": "#/definitions/util.Response"}},
                    "201": {"description": "新建作答", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "模块不存在", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "作答正被其他请求修改", "schema": {"$ref": "#/definitions/util.Response"}},
                    "422": {"description": "模块没有题目", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/attempts/{id}/questions/{index}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["作答"],
                "summary": "查看题目",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "题目位置（从1开始）", "name": "index", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["作答"],
                "summary": "提交答案",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "题目位置（从1开始）", "name": "index", "in": "path", "required": true},
                    {"description": "答案", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.Submission"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "答案与题型不符或选项不属于该题", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/attempts/{id}/finish": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["作答"],
                "summary": "交卷",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/attempts/{id}/result": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["作答"],
                "summary": "查看成绩",
                "parameters": [
                    {"type": "integer", "description": "作答ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/admin/modules/import": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "导入模块",
                "parameters": [
                    {"description": "模块内容", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.ModuleImport"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/util.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/api/admin/attempts": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["管理"],
                "summary": "作答记录",
                "parameters": [
                    {"type": "integer", "description": "模块ID", "name": "moduleId", "in": "query"},
                    {"type": "integer", "description": "用户ID", "name": "userId", "in": "query"},
                    {"type": "integer", "default": 1, "description": "页码", "name": "page", "in": "query"},
                    {"type": "integer", "default": 20, "description": "每页数量", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "controller.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "controller.RegisterRequest": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string"},
                "organization": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "minLength": 8},
                "phoneNumber": {"type": "string", "maxLength": 15},
                "username": {"type": "string", "maxLength": 150}
            }
        },
        "service.ChoiceImport": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "isCorrect": {"type": "boolean"}
            }
        },
        "service.ExamConfigImport": {
            "type": "object",
            "properties": {
                "randomizeQuestions": {"type": "boolean"},
                "showResultMode": {"type": "string"},
                "timeLimit": {"type": "integer"}
            }
        },
        "service.ModuleImport": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "config": {"$ref": "#/definitions/service.ExamConfigImport"},
                "description": {"type": "string"},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/service.QuestionImport"}},
                "title": {"type": "string"}
            }
        },
        "service.QuestionImport": {
            "type": "object",
            "properties": {
                "choices": {"type": "array", "items": {"$ref": "#/definitions/service.ChoiceImport"}},
                "content": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "service.Submission": {
            "type": "object",
            "properties": {
                "choiceIds": {"type": "array", "items": {"type": "integer"}},
                "textAnswer": {"type": "string"}
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
        "ApiKeyAuth": {
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
	Title:            "Quiz 后端 API",
	Description:      "在线测验服务：模块作答、计时、评分与成绩查看。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
