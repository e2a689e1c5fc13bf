package zhttp

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchParams struct {
	Q    string  `form:"q"`
	Page *uint32 `form:"page"`
}

type createUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Remember bool   `form:"remember"`
}

func bodyOf(s string) io.ReadCloser { return io.NopCloser(strings.NewReader(s)) }

func withContentType(ct string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", ct)
	return h
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e), "expected *Error, got %T", err)
	return e.StatusCode()
}

func TestQuery_Decodes(t *testing.T) {
	req := newReq(t, http.MethodGet, "/search?q=rust&page=2", nil, nil)
	p, err := Query[searchParams](req)
	require.NoError(t, err)
	assert.Equal(t, "rust", p.Q)
	require.NotNil(t, p.Page)
	assert.Equal(t, uint32(2), *p.Page)
}

func TestQuery_OptionalFieldMissing(t *testing.T) {
	req := newReq(t, http.MethodGet, "/search?q=go&unknown=1", nil, nil)
	p, err := Query[searchParams](req)
	require.NoError(t, err)
	assert.Equal(t, "go", p.Q)
	assert.Nil(t, p.Page)
}

func TestQuery_Failures(t *testing.T) {
	_, err := Query[searchParams](newReq(t, http.MethodGet, "/search", nil, nil))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	_, err = Query[searchParams](newReq(t, http.MethodGet, "/search?q=go&page=two", nil, nil))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	type required struct {
		Q string `form:"q,required"`
	}
	_, err = Query[required](newReq(t, http.MethodGet, "/search?page=1", nil, nil))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestForm_Decodes(t *testing.T) {
	req := newReq(t, http.MethodPost, "/login", withContentType("application/x-www-form-urlencoded; charset=utf-8"),
		bodyOf("username=admin&password=secret&remember=true"))
	f, err := Form[loginForm](req)
	require.NoError(t, err)
	assert.Equal(t, loginForm{Username: "admin", Password: "secret", Remember: true}, f)
}

func TestForm_Failures(t *testing.T) {
	req := newReq(t, http.MethodPost, "/login", withContentType("application/json"), bodyOf(`{}`))
	_, err := Form[loginForm](req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	req = newReq(t, http.MethodPost, "/login", withContentType("application/x-www-form-urlencoded"), bodyOf("remember=maybe"))
	_, err = Form[loginForm](req)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	req = newReq(t, http.MethodPost, "/login", withContentType("application/x-www-form-urlencoded"), bodyOf("a=%zz"))
	_, err = Form[loginForm](req)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestJSONBody_Decodes(t *testing.T) {
	req := newReq(t, http.MethodPost, "/users", withContentType("application/json; charset=utf-8"),
		bodyOf(`{"name":"Alice","email":"alice@example.test"}`))
	u, err := JSONBody[createUser](req)
	require.NoError(t, err)
	assert.Equal(t, createUser{Name: "Alice", Email: "alice@example.test"}, u)
}

func TestJSONBody_WrongContentTypeFailsBeforeHandler(t *testing.T) {
	stream := &countingStream{r: strings.NewReader(`{"name":"Alice"}`)}
	req := newReq(t, http.MethodPost, "/users", withContentType("text/plain"), stream)

	ran := false
	h := Endpoint(With1(Bind[*appState](JSONBody[createUser]), func(u createUser) (*Res, error) {
		ran = true
		return String(http.StatusOK, u.Name), nil
	}), DefaultErrorHandler)

	res := h(req, &appState{})
	assert.False(t, ran)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, 0, stream.reads, "content type is checked before the body is read")
}

func TestJSONBody_Malformed(t *testing.T) {
	req := newReq(t, http.MethodPost, "/users", withContentType("application/json"), bodyOf(`{"name":`))
	_, err := JSONBody[createUser](req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	req = newReq(t, http.MethodPost, "/users", withContentType("application/json"), bodyOf(`{"name":42}`))
	_, err = JSONBody[createUser](req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestPath_StringsOnly(t *testing.T) {
	req := newReq(t, http.MethodGet, "/users/42", nil, nil)
	req.SetParams(map[string]string{"id": "42"})

	type byString struct {
		ID string `json:"id"`
	}
	p, err := Path[byString](req)
	require.NoError(t, err)
	assert.Equal(t, "42", p.ID)

	// 数值字段不做类型转换
	type byInt struct {
		ID int `json:"id"`
	}
	_, err = Path[byInt](req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	// 通过 `,string` 选项由调用方显式转换
	type byQuotedInt struct {
		ID int `json:"id,string"`
	}
	q, err := Path[byQuotedInt](req)
	require.NoError(t, err)
	assert.Equal(t, 42, q.ID)
}

func TestHeadersAndBodyBytes(t *testing.T) {
	h := withContentType("application/octet-stream")
	h.Add("X-Trace", "a")
	h.Add("X-Trace", "b")
	req := newReq(t, http.MethodPost, "/upload", h, bodyOf("raw-bytes"))

	got, err := Headers(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Values("x-trace"))
	got.Set("X-Trace", "mutated")
	assert.Equal(t, "a", req.Header("X-Trace"), "Headers returns a copy")

	b, err := BodyBytes(req)
	require.NoError(t, err)
	assert.Equal(t, "raw-bytes", string(b))
}

func TestState_ReturnsSharedValue(t *testing.T) {
	st := &appState{name: "shared"}
	got, err := State(newReq(t, http.MethodGet, "/", nil, nil), st)
	require.NoError(t, err)
	assert.Same(t, st, got)
}

// 多个提取器共享同一次请求体读取
func TestWith_MultipleBodyExtractorsReadOnce(t *testing.T) {
	stream := &countingStream{r: strings.NewReader(`{"name":"Alice"}`)}
	req := newReq(t, http.MethodPost, "/users/7?q=x", withContentType("application/json"), stream)
	req.SetParams(map[string]string{"id": "7"})

	type idPath struct {
		ID string `json:"id"`
	}
	h := With4(
		Bind[*appState](Path[idPath]),
		Bind[*appState](JSONBody[createUser]),
		Bind[*appState](BodyBytes),
		Extractor[*appState, *appState](State[*appState]),
		func(p idPath, u createUser, raw []byte, st *appState) (*Res, error) {
			return String(http.StatusOK, p.ID+":"+u.Name+":"+string(raw)+":"+st.name), nil
		})

	res, err := h(req, &appState{name: "s"})
	require.NoError(t, err)
	assert.Equal(t, `7:Alice:{"name":"Alice"}:s`, string(res.Body))

	reads := stream.reads
	_, _ = req.Body()
	assert.Equal(t, reads, stream.reads)
}

// 第一个失败的提取器短路后续提取器
func TestWith_FirstFailureShortCircuits(t *testing.T) {
	var order []string
	ex := func(name string, fail bool) Extractor[*appState, string] {
		return func(req *Req, _ *appState) (string, error) {
			order = append(order, name)
			if fail {
				return "", BadRequest(name + " failed")
			}
			return name, nil
		}
	}

	ran := false
	h := With3(ex("a", false), ex("b", true), ex("c", false), func(a, b, c string) (*Res, error) {
		ran = true
		return Empty(http.StatusOK), nil
	})
	_, err := h(newReq(t, http.MethodGet, "/", nil, nil), &appState{})

	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.False(t, ran)

	order = nil
	h2 := With2(ex("a", false), ex("b", false), func(a, b string) (*Res, error) {
		return String(http.StatusOK, a+b), nil
	})
	res, err := h2(newReq(t, http.MethodGet, "/", nil, nil), &appState{})
	require.NoError(t, err)
	assert.Equal(t, "ab", string(res.Body))
}
