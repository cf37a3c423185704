package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	redacted = "[REDACTED]"

	// maxQueryLogLength caps the logged query string in bytes.
	maxQueryLogLength = 2048
)

var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// digit runs glued to a word or hyphen (UUIDs, RFQ numbers) never match
	phoneRE = regexp.MustCompile(`(?:^|[^\w-])(\+?\d[\d .()-]{8,}\d)\b`)
)

// defaultMaskHeaders carry credentials.
var defaultMaskHeaders = []string{"Authorization", "Cookie", "Set-Cookie", "X-API-Key"}

// defaultMaskParams carry credentials or contact details.
var defaultMaskParams = []string{"token", "access_token", "email"}

// RedactOptions adds to the built-in masked headers and query parameters.
// Names are matched case-insensitively.
type RedactOptions struct {
	MaskHeaders []string
	MaskParams  []string
}

// Redactor scrubs request metadata before it reaches the access log.
type Redactor struct {
	headers map[string]struct{}
	params  map[string]struct{}
}

// NewRedactor merges opts with the built-in masks.
func NewRedactor(opts RedactOptions) *Redactor {
	return &Redactor{
		headers: lowerSet(defaultMaskHeaders, opts.MaskHeaders),
		params:  lowerSet(defaultMaskParams, opts.MaskParams),
	}
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

func lowerSet(lists ...[]string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, l := range lists {
		for _, s := range l {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				m[s] = struct{}{}
			}
		}
	}
	return m
}

// minPhoneDigits keeps dates and quantities out of the phone pattern.
const minPhoneDigits = 10

// Text replaces emails and phone numbers in s.
func (r *Redactor) Text(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllStringFunc(s, func(m string) string {
		sub := phoneRE.FindStringSubmatch(m)
		if countDigits(sub[1]) < minPhoneDigits {
			return m
		}
		return strings.Replace(m, sub[1], "[REDACTED:phone]", 1)
	})
}

// Query masks credential parameters in a raw query string and scrubs the rest.
// Unparseable queries are scrubbed as text.
func (r *Redactor) Query(raw string) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return truncate(r.Text(raw), maxQueryLogLength)
	}
	for k, vv := range vals {
		_, mask := r.params[strings.ToLower(k)]
		for i := range vv {
			if mask {
				vv[i] = redacted
			} else {
				vv[i] = r.Text(vv[i])
			}
		}
	}
	q, _ := url.QueryUnescape(vals.Encode())
	return truncate(q, maxQueryLogLength)
}

// Headers flattens h with masked headers replaced and the rest scrubbed.
func (r *Redactor) Headers(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.headers[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = r.Text(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger binds a request-scoped logger to the context and writes one
// scrubbed access log line per request. Bodies are never logged.
//
// The line carries the route, the caller role and id set by Authenticate, and
// the status. Level is error for 5xx or gin errors, warn for 4xx, else info.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	rd := NewRedactor(opts)
	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("route", route).
			Logger()
		c.Set(loggerKey, &l)

		query := rd.Query(c.Request.URL.RawQuery)
		headers := rd.Headers(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		lg := LoggerFrom(c)
		switch {
		case len(c.Errors) > 0:
			ev = lg.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		default:
			ev = lg.Info()
		}
		if IsReplay(c) {
			ev = ev.Bool("idempotent_replay", true)
		}
		ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// truncate cuts s to max bytes plus an ellipsis. max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
