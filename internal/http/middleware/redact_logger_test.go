package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-rfq-backend/internal/auth"
)

func TestRedactor_Text(t *testing.T) {
	rd := NewRedactor(RedactOptions{})
	cases := []struct{ in, want string }{
		{"", ""},
		{"contact buyer@acme.io now", "contact [REDACTED:email] now"},
		{"call +1 212-555-1212", "call [REDACTED:phone]"},
		{"RFQ-20260301-AB12CD34", "RFQ-20260301-AB12CD34"},
		{"550e8400-e29b-41d4-a716-446655440000", "550e8400-e29b-41d4-a716-446655440000"},
		{"deadline 2026-10-19", "deadline 2026-10-19"},
		{"qty 1500", "qty 1500"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rd.Text(tc.in), tc.in)
	}
}

func TestRedactor_Query(t *testing.T) {
	rd := NewRedactor(RedactOptions{MaskParams: []string{"Secret"}})

	got := rd.Query("status=OPEN&token=abc&secret=s3&note=ping%20ops%40acme.io&page=2")
	assert.Contains(t, got, "status=OPEN")
	assert.Contains(t, got, "token=[REDACTED]")
	assert.Contains(t, got, "secret=[REDACTED]")
	assert.Contains(t, got, "note=ping [REDACTED:email]")
	assert.Contains(t, got, "page=2")
	assert.NotContains(t, got, "abc")

	assert.Empty(t, rd.Query(""))
	long := rd.Query("q=" + strings.Repeat("x", maxQueryLogLength+10))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestRedactor_Headers(t *testing.T) {
	rd := NewRedactor(RedactOptions{MaskHeaders: []string{" x-tenant-token "}})
	got := rd.Headers(http.Header{
		"Authorization":  {"Bearer abc"},
		"X-Api-Key":      {"k"},
		"X-Tenant-Token": {"t"},
		"X-Note":         {"ping ops@acme.io"},
		"X-User-Role":    {"buyer"},
	})
	assert.Equal(t, redacted, got["Authorization"])
	assert.Equal(t, redacted, got["X-Api-Key"])
	assert.Equal(t, redacted, got["X-Tenant-Token"])
	assert.Equal(t, "ping [REDACTED:email]", got["X-Note"])
	assert.Equal(t, "buyer", got["X-User-Role"])
}

func TestRedactingLogger_AccessLine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}), Authenticate(auth.HeaderIdentifier{}))
	r.GET("/rfq/:id", func(c *gin.Context) {
		LoggerFrom(c).Info().Str("rfq_id", c.Param("id")).Msg("lookup")
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	req := httptest.NewRequest(http.MethodGet, "/rfq/r-9?token=abc", nil)
	req.Header.Set(requestIDHeader, "rid-9")
	req.Header.Set(auth.HeaderUserID, "buyer-1")
	req.Header.Set(auth.HeaderUserRole, "buyer")
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	lines := logLines(t, buf)
	require.Len(t, lines, 2)

	inner := lines[0]
	assert.Equal(t, "lookup", inner["message"])
	assert.Equal(t, "rid-9", inner["request_id"])
	assert.Equal(t, "buyer-1", inner["user_id"])
	assert.Equal(t, "buyer", inner["role"])
	assert.Equal(t, "/rfq/:id", inner["route"])

	access := lines[1]
	assert.Equal(t, "http_request", access["message"])
	assert.Equal(t, "info", access["level"])
	assert.Equal(t, "buyer", access["role"])
	assert.Equal(t, float64(http.StatusOK), access["status"])
	assert.Equal(t, "token=[REDACTED]", access["query"])
	headers, ok := access["headers"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, redacted, headers["Authorization"])
	assert.NotContains(t, buf.String(), "secret")
}

func TestRedactingLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/err", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusOK)
	})

	for _, p := range []string{"/bad", "/boom", "/err", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	lines := logLines(t, buf)
	require.Len(t, lines, 4)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "error", lines[2]["level"])
	assert.Contains(t, lines[2]["errors"], assert.AnError.Error())
	assert.Equal(t, "warn", lines[3]["level"])
	assert.Equal(t, "/missing", lines[3]["route"])
}
