package http

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIdentity is used when no address can be derived from the request
const UnknownIdentity = "unknown"

// IPConfig holds configuration for client identity extraction
type IPConfig struct {
	// TrustedProxies narrows which peers may supply X-Forwarded-For (CIDR ranges).
	// Empty means the forwarded chain is always honoured, which is only sound
	// when the gateway sits behind a proxy that overwrites the header.
	TrustedProxies []string
}

// ExtractClientIP derives the client identity used as the attempt-ledger key.
//
// Flow:
// 1. First entry of X-Forwarded-For (when the peer may supply it)
// 2. The direct peer address from RemoteAddr
// 3. The literal "unknown"
//
// The result is not cryptographically verified: it is only as trustworthy as
// the proxy chain in front of the gateway.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	remoteIP := getRemoteAddr(r)

	if forwardedAllowed(remoteIP, config) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first := strings.TrimSpace(strings.Split(xff, ",")[0])
			if first != "" {
				return first
			}
		}
	}

	return remoteIP
}

func forwardedAllowed(remoteIP string, config *IPConfig) bool {
	if config == nil || len(config.TrustedProxies) == 0 {
		return true
	}
	return isTrustedProxy(remoteIP, config.TrustedProxies)
}

// getRemoteAddr extracts the IP address from RemoteAddr (removing port if present)
func getRemoteAddr(r *http.Request) string {
	if r.RemoteAddr != "" {
		// RemoteAddr may include port: "ip:port"
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return ip
		}
		return r.RemoteAddr
	}
	return UnknownIdentity
}

// isTrustedProxy checks if an IP address is within any of the trusted proxy CIDR ranges
func isTrustedProxy(ip string, trustedProxies []string) bool {
	clientIP := net.ParseIP(ip)
	if clientIP == nil {
		return false
	}

	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue // Skip invalid CIDR ranges
		}
		if ipNet.Contains(clientIP) {
			return true
		}
	}

	return false
}
