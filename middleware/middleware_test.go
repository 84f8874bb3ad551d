package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/steward"
)

func TestActorHeader(t *testing.T) {
	var got string
	h := Actor("")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = steward.ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/changes/execute", nil)
	req.Header.Set(DefaultActorHeader, "ops")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "ops", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/changes/execute", nil))
	assert.Equal(t, steward.SystemActor, got)
}

func TestActorCustomHeader(t *testing.T) {
	var got string
	h := Actor("X-Forwarded-User")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = steward.ActorFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/audit", nil)
	req.Header.Set("X-Forwarded-User", "dba")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "dba", got)
}
