package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func doRequestID(t *testing.T, inbound string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if inbound != "" {
		req.Header.Set(requestIDHeader, inbound)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header().Get(requestIDHeader)
}

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	id := doRequestID(t, "")
	require.Len(t, id, 32)
}

func TestRequestID_KeepsValidInbound(t *testing.T) {
	require.Equal(t, "deadbeef", doRequestID(t, "deadbeef"))
}

func TestRequestID_ReplacesJunkInbound(t *testing.T) {
	for _, junk := range []string{"not-hex!", strings.Repeat("ab", 40)} {
		id := doRequestID(t, junk)
		require.NotEqual(t, junk, id)
		require.Len(t, id, 32)
	}
}
