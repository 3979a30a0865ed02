package modkit

import (
	"armvalidator/internal/modkit/repokit"
	"armvalidator/internal/platform/config"
)

// Deps are the shared dependencies every module constructor receives
type Deps struct {
	// Cfg is the unprefixed env view; modules pick their own keys
	Cfg config.Conf
	// PG is the run ledger; nil when SERVICE_PGSQL_DBURL is unset
	PG repokit.TxRunner
}

// HasLedger reports whether runs can be recorded
func (d Deps) HasLedger() bool { return d.PG != nil }
