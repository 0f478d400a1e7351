package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"zaplens/internal/core/version"
)

// Operation documents one route; modules register these from their constructors
type Operation struct {
	Method  string
	Path    string // relative to /api/v1, chi style params: /zaps/sessions/{id}
	Tag     string
	Summary string
	// Body names a request schema in Schemas, empty for body-less routes
	Body string
}

var (
	mu      sync.RWMutex
	ops     = map[string]Operation{}
	schemas = map[string]any{}
)

// Register adds documented operations; re-registering the same method+path replaces it
func Register(list ...Operation) {
	mu.Lock()
	defer mu.Unlock()
	for _, op := range list {
		ops[op.Method+" "+op.Path] = op
	}
}

// RegisterSchema adds a named component schema
func RegisterSchema(name string, schema map[string]any) {
	mu.Lock()
	schemas[name] = schema
	mu.Unlock()
}

// Doc renders the OpenAPI 3.0.3 document from everything registered so far
func Doc() map[string]any {
	mu.RLock()
	defer mu.RUnlock()

	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	paths := map[string]any{}
	for _, k := range keys {
		op := ops[k]
		item, _ := paths[op.Path].(map[string]any)
		if item == nil {
			item = map[string]any{}
			paths[op.Path] = item
		}
		item[strings.ToLower(op.Method)] = operationDoc(op)
	}

	comps := map[string]any{"ErrorResponse": errorSchema()}
	for name, s := range schemas {
		comps[name] = s
	}

	bi := version.Info()
	return map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": bi.Service + " API", "version": bi.Version},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   paths,
		"components": map[string]any{
			"schemas": comps,
		},
	}
}

func operationDoc(op Operation) map[string]any {
	ref := map[string]any{"$ref": "#/components/schemas/ErrorResponse"}
	doc := map[string]any{
		"summary": op.Summary,
		"tags":    []any{op.Tag},
		"responses": map[string]any{
			"200":     map[string]any{"description": "OK"},
			"400":     map[string]any{"description": "Bad Request", "content": jsonContent(ref)},
			"default": map[string]any{"description": "Error", "content": jsonContent(ref)},
		},
	}
	if op.Body != "" {
		doc["requestBody"] = map[string]any{
			"required": true,
			"content":  jsonContent(map[string]any{"$ref": "#/components/schemas/" + op.Body}),
		}
	}
	return doc
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{"application/json": map[string]any{"schema": schema}}
}

// errorSchema mirrors platform/net.Wire
func errorSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(Doc())
	}
}
