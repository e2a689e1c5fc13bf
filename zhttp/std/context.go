package std

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/SparkleBo/zapi/zhttp"
)

// ErrUpgradeUnsupported 底层 ResponseWriter 不支持劫持连接（如 HTTP/2）
var ErrUpgradeUnsupported = errors.New("std: connection upgrade not supported")

// acquireReq 由 net/http 请求构造 zhttp.Req，maxBody > 0 时限制请求体大小
func acquireReq(w http.ResponseWriter, r *http.Request, maxBody int64) *zhttp.Req {
	if maxBody > 0 && r.Body != nil && r.Body != http.NoBody {
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	return zhttp.FromHTTP(r)
}

// writeRes 将响应写回客户端；带升级回调的响应劫持连接后交给回调
func writeRes(w http.ResponseWriter, res *zhttp.Res) error {
	up := res.Upgrade()
	if up == nil {
		return res.WriteTo(w)
	}
	hj, ok := w.(http.Hijacker)
	if !ok {
		return ErrUpgradeUnsupported
	}
	conn, rw, err := hj.Hijack()
	if err != nil {
		return fmt.Errorf("std: hijack: %w", err)
	}
	// 劫持后 net/http 不再写任何东西，手动写出响应头
	if _, err := fmt.Fprintf(rw, "HTTP/1.1 %d %s\r\n", res.Status, http.StatusText(res.Status)); err != nil {
		_ = conn.Close()
		return err
	}
	if err := res.Header.Write(rw); err != nil {
		_ = conn.Close()
		return err
	}
	if _, err := rw.WriteString("\r\n"); err != nil {
		_ = conn.Close()
		return err
	}
	if err := rw.Flush(); err != nil {
		_ = conn.Close()
		return err
	}
	up(conn, rw)
	return nil
}
