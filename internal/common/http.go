package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address used for rate-limit buckets. The API
// mounts chi's RealIP first, so RemoteAddr already reflects X-Forwarded-For
// and X-Real-IP; forwarding headers are not trusted again here.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
