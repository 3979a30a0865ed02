package module

import (
	stdctx "context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"armvalidator/internal/modkit"
	"armvalidator/internal/modkit/repokit"
	phttp "armvalidator/internal/platform/net/http"
	"armvalidator/internal/platform/testkit"
	metahttp "armvalidator/internal/services/api/meta/http"
)

func TestModule_MountsUnderMeta(t *testing.T) {
	probed := false
	m := New(modkit.Deps{}, []metahttp.Check{{Name: "az", Probe: func(stdctx.Context) error {
		probed = true
		return nil
	}}})

	if m.Name() != "meta" || m.Ports() != nil {
		t.Fatalf("name=%q ports=%v", m.Name(), m.Ports())
	}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta/ready", nil))
	if rec.Code != http.StatusOK || !probed {
		t.Fatalf("status=%d probed=%v", rec.Code, probed)
	}
	testkit.MustContain(t, rec.Body.String(), `"name":"az"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta/version", nil))
	testkit.MustContain(t, rec.Body.String(), `"service":"armvalidator-api"`)
}

func TestModule_PrefixOverride(t *testing.T) {
	m := New(modkit.Deps{}, nil, modkit.WithPrefix("/_meta")).(*Module)
	if m.Prefix() != "/_meta" {
		t.Fatalf("prefix = %q", m.Prefix())
	}

	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/_meta/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

type pingingLedger struct {
	repokit.TxRunner
	err error
}

func (p pingingLedger) Ping(stdctx.Context) error { return p.err }

func TestModule_LedgerPingDrivesReadiness(t *testing.T) {
	m := New(modkit.Deps{PG: pingingLedger{err: errors.New("connection refused")}}, nil)
	mux := chi.NewRouter()
	m.MountRoutes(phttp.AdaptChi(mux))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/meta/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	testkit.MustContain(t, rec.Body.String(), "connection refused")
}
