package zmw

import (
	"bytes"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SparkleBo/zapi/zhttp"
)

type state struct{}

func req(t *testing.T, method, target string, header map[string]string) *zhttp.Req {
	t.Helper()
	h := http.Header{}
	for k, v := range header {
		h.Set(k, v)
	}
	r, err := zhttp.NewReq(method, target, h, nil)
	require.NoError(t, err)
	return r
}

func run(mw zhttp.Middleware[*state], h zhttp.HandlerFunc[*state], r *zhttp.Req) *zhttp.Res {
	return zhttp.NewChain[*state](mw).Then(h)(r, &state{})
}

func ok(calls *int) zhttp.HandlerFunc[*state] {
	return func(*zhttp.Req, *state) *zhttp.Res {
		*calls++
		return zhttp.String(http.StatusOK, "ok")
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	mw := Recovery[*state](slog.New(slog.NewTextHandler(&buf, nil)))
	res := run(mw, func(*zhttp.Req, *state) *zhttp.Res { panic("boom") }, req(t, "GET", "/", nil))

	assert.Equal(t, http.StatusInternalServerError, res.Status)
	assert.Equal(t, "internal error: boom", string(res.Body))
	assert.Contains(t, buf.String(), "panic")

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		run(mw, func(*zhttp.Req, *state) *zhttp.Res { panic(http.ErrAbortHandler) }, req(t, "GET", "/", nil))
	})

	calls := 0
	res = run(mw, ok(&calls), req(t, "GET", "/", nil))
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestRateLimit(t *testing.T) {
	mw := RateLimit[*state](1, 1) // 每秒 1 个令牌，容量 1
	calls := 0

	res := run(mw, ok(&calls), req(t, "GET", "/", nil))
	assert.Equal(t, http.StatusOK, res.Status)

	// 立即第二次应被限流，因为桶容量为 1 且未补充令牌
	res = run(mw, ok(&calls), req(t, "GET", "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, res.Status)
	assert.Equal(t, 1, calls)
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	mw := Logging[*state](slog.New(slog.NewTextHandler(&buf, nil)))
	calls := 0
	res := run(mw, ok(&calls), req(t, "POST", "/users?x=1", nil))

	assert.Equal(t, http.StatusOK, res.Status)
	line := buf.String()
	assert.Contains(t, line, "msg=access")
	assert.Contains(t, line, "method=POST")
	assert.Contains(t, line, "path=/users")
	assert.Contains(t, line, "status=200")
}

func TestTiming(t *testing.T) {
	calls := 0
	res := run(Timing[*state](), ok(&calls), req(t, "GET", "/", nil))
	assert.NotEmpty(t, res.Header.Get("X-Response-Time"))
}

func TestCORS_Preflight(t *testing.T) {
	calls := 0
	mw := CORS[*state](PermissiveCORS())
	res := run(mw, ok(&calls), req(t, "OPTIONS", "/api", map[string]string{
		"Origin":                        "https://app.example.test",
		"Access-Control-Request-Method": "POST",
	}))

	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, 0, calls, "preflight does not reach the handler")
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, res.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "3600", res.Header.Get("Access-Control-Max-Age"))
}

func TestCORS_SimpleRequest(t *testing.T) {
	cfg := RestrictiveCORS()
	cfg.AllowOrigins = []string{"https://trusted.example.test"}
	cfg.ExposeHeaders = []string{"X-Response-Time"}
	cfg.AllowCredentials = true
	mw := CORS[*state](cfg)
	calls := 0

	res := run(mw, ok(&calls), req(t, "GET", "/", map[string]string{"Origin": "https://trusted.example.test"}))
	assert.Equal(t, "https://trusted.example.test", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", res.Header.Get("Vary"))
	assert.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "X-Response-Time", res.Header.Get("Access-Control-Expose-Headers"))

	res = run(mw, ok(&calls), req(t, "GET", "/", map[string]string{"Origin": "https://evil.example.test"}))
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 2, calls)
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestBasicAuth(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))

	mw := BasicAuth[*state]("admin", map[string]string{"alice": hash})
	calls := 0

	res := run(mw, ok(&calls), req(t, "GET", "/", map[string]string{"Authorization": basic("alice", "s3cret")}))
	assert.Equal(t, http.StatusOK, res.Status)

	for _, auth := range []string{"", basic("alice", "wrong"), basic("bob", "s3cret"), "Bearer token"} {
		res = run(mw, ok(&calls), req(t, "GET", "/", map[string]string{"Authorization": auth}))
		assert.Equal(t, http.StatusUnauthorized, res.Status, auth)
		assert.True(t, strings.HasPrefix(res.Header.Get("WWW-Authenticate"), `Basic realm="admin"`))
	}
	assert.Equal(t, 1, calls)
}
