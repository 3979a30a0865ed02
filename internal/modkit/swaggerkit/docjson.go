// Package swaggerkit serves the OpenAPI document and Swagger UI
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"armvalidator/internal/platform/logger"

	docs "armvalidator/internal/services/api/docs"
)

// SpecMutator lets modules adjust the parsed document before it is served
type SpecMutator func(spec map[string]any)

var (
	mu       sync.Mutex
	mutators []SpecMutator
)

// docReader is a seam so tests can serve a broken document
var docReader = func() string { return docs.SwaggerInfo.ReadDoc() }

// Register adds a mutator; modules call it while they are built
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	mutators = append(mutators, m)
}

func registered() []SpecMutator {
	mu.Lock()
	defer mu.Unlock()
	return append([]SpecMutator(nil), mutators...)
}

// serveDocJSON parses the registered document per request so mutators see
// the options of the running process
func serveDocJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec map[string]any
		if err := json.Unmarshal([]byte(docReader()), &spec); err != nil {
			logger.C(r.Context()).Error().Err(err).Msg("api document does not parse")
			http.Error(w, "spec parse error", http.StatusInternalServerError)
			return
		}

		normalize(spec, "/")
		for _, m := range registered() {
			m(spec)
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(spec)
	}
}

// normalize pins the version the bundled UI renders (3.0.x), adds a server
// entry and documents the bare error body as every operation's default
func normalize(spec map[string]any, serverURL string) {
	if v, _ := spec["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": serverURL}}
	}

	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["httpkit.ErrorBody"]; !ok {
		schemas["httpkit.ErrorBody"] = map[string]any{
			"type":       "object",
			"properties": map[string]any{"error": map[string]any{"type": "string"}},
		}
	}

	fallback := map[string]any{
		"description": "Unexpected error",
		"content": map[string]any{"application/json": map[string]any{
			"schema": map[string]any{"$ref": "#/components/schemas/httpkit.ErrorBody"},
		}},
	}
	paths, _ := spec["paths"].(map[string]any)
	for _, item := range paths {
		ops, _ := item.(map[string]any)
		for _, op := range ops {
			opm, ok := op.(map[string]any)
			if !ok {
				continue
			}
			resps := child(opm, "responses")
			if _, ok := resps["default"]; !ok {
				resps["default"] = fallback
			}
		}
	}
}

// child returns m[key] as an object, creating it when absent
func child(m map[string]any, key string) map[string]any {
	if c, ok := m[key].(map[string]any); ok {
		return c
	}
	c := map[string]any{}
	m[key] = c
	return c
}
