package swaggerkit

import (
	"net/http"

	phttp "armvalidator/internal/platform/net/http"
	docs "armvalidator/internal/services/api/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	// DocsPath is where the UI lives
	DocsPath = "/api/docs"
	// SpecPath serves the patched OpenAPI document
	SpecPath = DocsPath + "/doc.json"
)

// Mount serves the Swagger UI and the document when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get(DocsPath, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, DocsPath+"/", http.StatusPermanentRedirect)
	})
	r.Get(SpecPath, serveDocJSON())
	r.Handle(DocsPath+"/*", httpSwagger.Handler(
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		httpSwagger.URL(SpecPath),
	))
}
