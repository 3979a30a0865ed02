package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"armvalidator/internal/platform/testkit"
)

func fetchSpec(t *testing.T) map[string]any {
	t.Helper()
	rec := httptest.NewRecorder()
	serveDocJSON()(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var spec map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return spec
}

func TestServeDocJSON_DocumentsTemplateRoutes(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &mutators, nil)

	spec := fetchSpec(t)
	if spec["openapi"] != "3.0.3" {
		t.Fatalf("openapi = %v", spec["openapi"])
	}
	paths := spec["paths"].(map[string]any)
	for _, p := range []string{"/validate", "/deploy", "/runs", "/meta/health"} {
		if _, ok := paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
	deploy := paths["/deploy"].(map[string]any)["post"].(map[string]any)
	resps := deploy["responses"].(map[string]any)
	if _, ok := resps["default"]; !ok {
		t.Fatalf("default error response not injected")
	}
	if _, ok := resps["400"]; !ok {
		t.Fatalf("documented 400 was dropped")
	}
	servers := spec["servers"].([]any)
	if servers[0].(map[string]any)["url"] != "/" {
		t.Fatalf("servers = %v", servers)
	}
}

func TestServeDocJSON_AppliesMutators(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &mutators, nil)

	Register(nil)
	Register(func(spec map[string]any) {
		spec["x-keepalive-interval"] = "10s"
	})
	if got := fetchSpec(t)["x-keepalive-interval"]; got != "10s" {
		t.Fatalf("mutator not applied: %v", got)
	}
}

func TestServeDocJSON_BadDocument(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &docReader, func() string { return "{" })

	rec := httptest.NewRecorder()
	serveDocJSON()(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNormalize(t *testing.T) {
	spec := map[string]any{"openapi": "3.1.0", "servers": []any{"keep"}}
	normalize(spec, "/")
	if spec["openapi"] != "3.0.3" || spec["servers"].([]any)[0] != "keep" {
		t.Fatalf("spec = %v", spec)
	}
	schemas := spec["components"].(map[string]any)["schemas"].(map[string]any)
	if _, ok := schemas["httpkit.ErrorBody"]; !ok {
		t.Fatalf("error schema missing: %v", schemas)
	}

	spec = map[string]any{"paths": map[string]any{"/runs": map[string]any{"get": map[string]any{}}}}
	normalize(spec, "/api")
	if spec["servers"].([]any)[0].(map[string]any)["url"] != "/api" {
		t.Fatalf("servers = %v", spec["servers"])
	}
	op := spec["paths"].(map[string]any)["/runs"].(map[string]any)["get"].(map[string]any)
	if _, ok := op["responses"].(map[string]any)["default"]; !ok {
		t.Fatalf("responses = %v", op["responses"])
	}
}
