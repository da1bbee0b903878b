package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privasend/coordinator/internal/mixing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer() *Server {
	session := mixing.NewSession(wire.OutPoint{}, nil, nil, mixing.NewSignedTxJournal(), mixing.NewSystemRNG())
	return NewServer(session)
}

func TestHandleStatusReturnsSessionSnapshot(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"IDLE"`)
}

func TestHandleHealthzReportsOK(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil)
	rec := httptest.NewRecorder()

	s.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
