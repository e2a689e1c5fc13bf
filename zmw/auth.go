package zmw

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/SparkleBo/zapi/zhttp"
)

// HashPassword 以默认代价生成 bcrypt 哈希，用于配置 BasicAuth
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 校验明文密码与 bcrypt 哈希是否匹配
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BasicAuth HTTP Basic 认证，users 为 用户名 → bcrypt 哈希。
// 认证失败返回 401 且不调用 next。
func BasicAuth[S any](realm string, users map[string]string) zhttp.Middleware[S] {
	if realm == "" {
		realm = "restricted"
	}
	challenge := `Basic realm="` + realm + `"`
	return zhttp.MiddlewareFunc[S](func(req *zhttp.Req, state S, next *zhttp.Next[S]) *zhttp.Res {
		username, password, ok := parseBasicAuth(req)
		if ok {
			if hash, found := users[username]; found && CheckPassword(hash, password) {
				return next.Run(req)
			}
		}
		return zhttp.String(http.StatusUnauthorized, "Unauthorized").
			WithHeader("WWW-Authenticate", challenge)
	})
}

// parseBasicAuth 复用 net/http 的 Authorization 解析
func parseBasicAuth(req *zhttp.Req) (string, string, bool) {
	auth := req.Header("Authorization")
	if auth == "" {
		return "", "", false
	}
	r := http.Request{Header: http.Header{"Authorization": {auth}}}
	return r.BasicAuth()
}
