package module

import (
	"armvalidator/internal/modkit"
	metahttp "armvalidator/internal/services/api/meta/http"
	"armvalidator/internal/services/api/templates/domain"
)

// Ports is what the templates module publishes to the API and to main
type Ports struct {
	Service   domain.ServicePort
	Lifecycle modkit.Lifecycle
	// Checks feed /meta/ready
	Checks []metahttp.Check
}
