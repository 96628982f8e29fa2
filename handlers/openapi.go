package handlers

import (
	"net/http"
)

// OpenAPIHandler serves the OpenAPI specification.
type OpenAPIHandler struct {
	routePrefix string
}

// NewOpenAPIHandler creates a new OpenAPI handler describing the API mounted
// at routePrefix.
func NewOpenAPIHandler(routePrefix string) *OpenAPIHandler {
	return &OpenAPIHandler{routePrefix: routePrefix}
}

// ServeHTTP handles HTTP requests for the OpenAPI specification.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Only GET method is allowed for OpenAPI specification", http.StatusMethodNotAllowed)
		return
	}

	sendJSON(w, http.StatusOK, h.generateOpenAPISpec())
}

// generateOpenAPISpec generates the OpenAPI 3.0 specification.
func (h *OpenAPIHandler) generateOpenAPISpec() map[string]interface{} {
	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":       "BuddySQL API",
			"description": "Interactive SQL lessons: parse, run and grade queries against a sample store database.",
			"version":     "1.0.0",
			"contact": map[string]interface{}{
				"name": "GitHub Repository",
				"url":  "https://github.com/Scc33/BuddySQL",
			},
		},
		"servers": []map[string]interface{}{
			{
				"url":         h.routePrefix,
				"description": "BuddySQL API base path",
			},
		},
		"tags": []map[string]interface{}{
			{"name": "Queries", "description": "Parse and run SQL against the sandbox"},
			{"name": "Lessons", "description": "Lesson catalog and grading"},
			{"name": "Schema", "description": "Sandbox tables and previews"},
			{"name": "OpenAPI", "description": "API documentation"},
		},
		"paths":      h.generatePaths(),
		"components": h.generateComponents(),
	}
}

// generatePaths generates the paths section of the OpenAPI spec.
func (h *OpenAPIHandler) generatePaths() map[string]interface{} {
	return map[string]interface{}{
		"/health": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "Health check",
				"operationId": "health",
				"responses": map[string]interface{}{
					"200": jsonResponse("Service is up", map[string]interface{}{"type": "object"}),
				},
			},
		},
		"/openapi.json": map[string]interface{}{
			"get": map[string]interface{}{
				"tags":        []string{"OpenAPI"},
				"summary":     "Get OpenAPI specification",
				"operationId": "getOpenAPISpec",
				"responses": map[string]interface{}{
					"200": jsonResponse("OpenAPI specification", map[string]interface{}{"type": "object"}),
				},
			},
		},
		"/parse": map[string]interface{}{
			"post": securedOperation("Queries", "parseQuery", "Decompose a query into its clauses", "parse",
				schemaRef("SQLRequest"), jsonResponse("Parsed query", schemaRef("ParsedQuery"))),
		},
		"/run": map[string]interface{}{
			"post": securedOperation("Queries", "runQuery",
				"Run a script in the sandbox. Changes are rolled back. With Accept text/csv, application/parquet or application/vnd.apache.arrow.stream the first result set is returned in that format.",
				"run", schemaRef("SQLRequest"), h.tabularResponse("RunResponse")),
		},
		"/run/{sql}/result.{format}": map[string]interface{}{
			"get": h.generateRunGetOperation(),
		},
		"/grade": map[string]interface{}{
			"post": securedOperation("Lessons", "gradeQuery", "Run a query and grade it against a lesson", "grade",
				schemaRef("GradeRequest"), jsonResponse("Graded submission", schemaRef("Submission"))),
		},
		"/lessons": map[string]interface{}{
			"get": securedOperation("Lessons", "listLessons", "List every lesson in course order", "parse",
				nil, jsonResponse("Lesson catalog", map[string]interface{}{"type": "object"})),
		},
		"/lessons/{lesson}": map[string]interface{}{
			"get": securedOperation("Lessons", "getLesson", "Get one lesson by slug or id", "parse",
				nil, jsonResponse("Lesson", schemaRef("Lesson"))),
			"parameters": []map[string]interface{}{
				pathParameter("lesson", "Lesson slug or id"),
			},
		},
		"/schema": map[string]interface{}{
			"get": securedOperation("Schema", "listTables", "List sandbox tables and columns", "run",
				nil, jsonResponse("Tables", map[string]interface{}{"type": "object"})),
		},
		"/schema/{table}": map[string]interface{}{
			"get": h.generatePreviewOperation(),
			"parameters": []map[string]interface{}{
				pathParameter("table", "Name of the sandbox table"),
			},
		},
	}
}

// generateRunGetOperation generates the GET /run/{sql}/result.{format} operation spec.
func (h *OpenAPIHandler) generateRunGetOperation() map[string]interface{} {
	op := securedOperation("Queries", "runQueryURL", "Run a URL-encoded script and choose the format by extension", "run",
		nil, h.tabularResponse("RunResponse"))
	op["parameters"] = []map[string]interface{}{
		pathParameter("sql", "URL-encoded SQL script"),
		{
			"name":     "format",
			"in":       "path",
			"required": true,
			"schema": map[string]interface{}{
				"type": "string",
				"enum": []string{"json", "csv", "arrow", "parquet"},
			},
		},
	}
	return op
}

// generatePreviewOperation generates the GET /schema/{table} operation spec.
func (h *OpenAPIHandler) generatePreviewOperation() map[string]interface{} {
	op := securedOperation("Schema", "previewTable", "Get one page of a sandbox table", "run",
		nil, h.tabularResponse("PreviewResponse"))
	op["parameters"] = []map[string]interface{}{
		queryParameter("page", "integer", "Page number (1-based)"),
		queryParameter("limit", "integer", "Rows per page, capped at max_rows_per_page"),
		queryParameter("sort", "string", "Sort order, e.g. price:desc,name:asc"),
		queryParameter("links", "boolean", "Include HATEOAS navigation links"),
	}
	return op
}

// tabularResponse describes a 200 response available in every output format.
func (h *OpenAPIHandler) tabularResponse(jsonSchema string) map[string]interface{} {
	binary := map[string]interface{}{"type": "string", "format": "binary"}
	return map[string]interface{}{
		"description": "Result",
		"content": map[string]interface{}{
			"application/json":                    map[string]interface{}{"schema": schemaRef(jsonSchema)},
			"text/csv":                            map[string]interface{}{"schema": map[string]interface{}{"type": "string"}},
			"application/parquet":                 map[string]interface{}{"schema": binary},
			"application/vnd.apache.arrow.stream": map[string]interface{}{"schema": binary},
		},
	}
}

// securedOperation builds an operation that requires an API key (or the
// anonymous role) with the given permission.
func securedOperation(tag, operationID, summary, permission string, requestSchema, okResponse map[string]interface{}) map[string]interface{} {
	op := map[string]interface{}{
		"tags":        []string{tag},
		"summary":     summary,
		"description": summary + ". Requires can_" + permission + " permission.",
		"operationId": operationID,
		"security": []map[string]interface{}{
			{"ApiKeyAuth": []string{}},
		},
		"responses": map[string]interface{}{
			"200": okResponse,
			"400": jsonResponse("Bad request", schemaRef("ErrorResponse")),
			"401": jsonResponse("Unauthorized", schemaRef("ErrorResponse")),
			"403": jsonResponse("Forbidden", schemaRef("ErrorResponse")),
		},
	}
	if requestSchema != nil {
		op["requestBody"] = map[string]interface{}{
			"required": true,
			"content": map[string]interface{}{
				"application/json": map[string]interface{}{"schema": requestSchema},
			},
		}
	}
	return op
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func schemaRef(name string) map[string]interface{} {
	return map[string]interface{}{"$ref": "#/components/schemas/" + name}
}

func pathParameter(name, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"required":    true,
		"description": description,
		"schema":      map[string]interface{}{"type": "string"},
	}
}

func queryParameter(name, typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"required":    false,
		"description": description,
		"schema":      map[string]interface{}{"type": typ},
	}
}

func objectSchema(required []string, properties map[string]interface{}) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func typed(typ string) map[string]interface{} {
	return map[string]interface{}{"type": typ}
}

func arrayOf(items map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": items}
}

// generateComponents generates the components section of the OpenAPI spec.
func (h *OpenAPIHandler) generateComponents() map[string]interface{} {
	stringList := arrayOf(typed("string"))
	clauseList := objectSchema(nil, map[string]interface{}{"columns": stringList})
	conditions := objectSchema(nil, map[string]interface{}{"conditions": stringList})

	return map[string]interface{}{
		"securitySchemes": map[string]interface{}{
			"ApiKeyAuth": map[string]interface{}{
				"type":        "apiKey",
				"in":          "header",
				"name":        "X-API-Key",
				"description": "API key for authentication. Create keys with `buddysql auth key add`.",
			},
		},
		"schemas": map[string]interface{}{
			"ErrorResponse": objectSchema([]string{"error", "message", "code"}, map[string]interface{}{
				"error":   typed("string"),
				"message": typed("string"),
				"code":    typed("integer"),
			}),
			"SQLRequest": objectSchema([]string{"sql"}, map[string]interface{}{
				"sql": typed("string"),
			}),
			"GradeRequest": objectSchema([]string{"sql", "lesson"}, map[string]interface{}{
				"sql":       typed("string"),
				"lesson":    map[string]interface{}{"type": "string", "description": "Lesson slug or id"},
				"challenge": typed("boolean"),
			}),
			"ResultSet": objectSchema([]string{"columns", "values"}, map[string]interface{}{
				"columns": stringList,
				"values":  arrayOf(arrayOf(map[string]interface{}{})),
			}),
			"ParsedQuery": objectSchema([]string{"type"}, map[string]interface{}{
				"type": map[string]interface{}{
					"type": "string",
					"enum": []string{"SELECT", "INSERT", "UPDATE", "DELETE", "UNKNOWN"},
				},
				"select": objectSchema(nil, map[string]interface{}{
					"columns":    stringList,
					"allColumns": typed("boolean"),
				}),
				"from": objectSchema(nil, map[string]interface{}{
					"tables": stringList,
					"alias":  map[string]interface{}{"type": "object", "additionalProperties": typed("string")},
				}),
				"where": conditions,
				"join": arrayOf(objectSchema(nil, map[string]interface{}{
					"type":  typed("string"),
					"table": typed("string"),
					"on":    typed("string"),
				})),
				"groupBy": clauseList,
				"having":  conditions,
				"orderBy": objectSchema(nil, map[string]interface{}{
					"columns":   stringList,
					"direction": map[string]interface{}{"type": "string", "enum": []string{"ASC", "DESC"}},
				}),
				"limit":  typed("integer"),
				"offset": typed("integer"),
			}),
			"RunResponse": objectSchema([]string{"results", "parsed", "execution_time_ms"}, map[string]interface{}{
				"results":           arrayOf(schemaRef("ResultSet")),
				"parsed":            schemaRef("ParsedQuery"),
				"execution_time_ms": typed("integer"),
			}),
			"GradeResult": objectSchema([]string{"isCorrect", "score", "feedback", "type"}, map[string]interface{}{
				"isCorrect": typed("boolean"),
				"score":     map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
				"feedback":  typed("string"),
				"hints":     stringList,
				"type":      map[string]interface{}{"type": "string", "enum": []string{"success", "error", "warning", "info"}},
			}),
			"Submission": objectSchema([]string{"grade", "results"}, map[string]interface{}{
				"grade":   schemaRef("GradeResult"),
				"results": arrayOf(schemaRef("ResultSet")),
				"error":   typed("string"),
			}),
			"Lesson": objectSchema([]string{"id", "slug", "title"}, map[string]interface{}{
				"id":            typed("string"),
				"slug":          typed("string"),
				"title":         typed("string"),
				"description":   typed("string"),
				"order":         typed("integer"),
				"initial_query": typed("string"),
				"challenge": objectSchema(nil, map[string]interface{}{
					"description":      typed("string"),
					"success_message":  typed("string"),
					"validation_query": typed("string"),
				}),
			}),
			"PreviewResponse": objectSchema([]string{"columns", "data"}, map[string]interface{}{
				"columns": stringList,
				"data":    arrayOf(map[string]interface{}{"type": "object", "additionalProperties": true}),
				"pagination": objectSchema(nil, map[string]interface{}{
					"page":        typed("integer"),
					"limit":       typed("integer"),
					"total_rows":  typed("integer"),
					"total_pages": typed("integer"),
				}),
				"_links": map[string]interface{}{"type": "object", "additionalProperties": typed("string")},
			}),
		},
	}
}
