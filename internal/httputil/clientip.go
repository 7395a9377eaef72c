package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the source address of a request. When trustForwarded is
// set, the first (client-closest) address in the X-Forwarded-For chain wins;
// otherwise, and whenever the header is absent or unusable, the transport
// peer address is used.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
