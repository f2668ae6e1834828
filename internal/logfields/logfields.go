package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyModule     = "module"
	KeySitepath   = "sitepath"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyConnID     = "conn_id"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRoute      = "route"
	KeyTLS        = "tls"
	KeyDurationMS = "duration_ms"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Module(name string) slog.Attr     { return slog.String(KeyModule, name) }
func Sitepath(p string) slog.Attr      { return slog.String(KeySitepath, p) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func ConnID(id string) slog.Attr       { return slog.String(KeyConnID, id) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func Route(r string) slog.Attr         { return slog.String(KeyRoute, r) }
func TLS(on bool) slog.Attr            { return slog.Bool(KeyTLS, on) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
