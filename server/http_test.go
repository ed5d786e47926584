package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/middleware"
)

func newTestHTTPListener(maxBody int64) *HTTPListener {
	h := &Handler{Pipeline: middleware.New(middleware.MiddlewareFunc(terminal))}
	cfg := HTTPConfig{Addr: "127.0.0.1:0", Workers: 1, MaxBodyBytes: maxBody}
	return NewHTTPListener(cfg, h, zap.NewNop())
}

func Test_HTTPListener_ServeCall_Success(t *testing.T) {
	l := newTestHTTPListener(1 << 20)

	body := `{"jsonrpc":"2.0","id":1,"method":"eth_blockNumber","params":[]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	l.serveCall(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"0x1"`)
}

func Test_HTTPListener_ServeCall_RejectsNonPost(t *testing.T) {
	l := newTestHTTPListener(1 << 20)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	l.serveCall(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func Test_HTTPListener_ServeCall_RejectsOversizedBody(t *testing.T) {
	l := newTestHTTPListener(8)

	body := `{"jsonrpc":"2.0","id":1,"method":"eth_blockNumber","params":[]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	l.serveCall(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func Test_HTTPListener_ServeCall_NotificationReturnsNoContent(t *testing.T) {
	l := newTestHTTPListener(1 << 20)

	body := `{"jsonrpc":"2.0","method":"eth_subscription","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	l.serveCall(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
