package logger

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
)

const redacted = "[REDACTED]"

// MaskIdentity hides the host part of a client address: the last IPv4 octet,
// or everything after the first three IPv6 groups. Non-IP identities are
// fully redacted.
func MaskIdentity(identity string) string {
	ip := net.ParseIP(identity)
	if ip == nil {
		return redacted
	}
	if v4 := ip.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], v4[2], 0).String() + "/24"
	}
	return ip.Mask(net.CIDRMask(48, 128)).String() + "/48"
}

// MaskEmail keeps the first character of the mailbox and the top-level domain
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return redacted
	}

	mailbox, domain := email[:at], email[at+1:]
	masked := mailbox[:1] + strings.Repeat("*", len(mailbox)-1)

	if dot := strings.LastIndex(domain, "."); dot > 0 {
		domain = strings.Repeat("*", dot) + domain[dot:]
	}
	return masked + "@" + domain
}

// RedactedAttr drops value when redact is set
func RedactedAttr(key, value string, redact bool) slog.Attr {
	if redact {
		return slog.String(key, redacted)
	}
	return slog.String(key, value)
}

var sensitiveParams = []string{"password", "secret", "token", "otp", "session", "auth"}

// HasSensitiveQuery reports whether any query parameter name looks like it
// carries a credential. Unparseable queries count as sensitive.
func HasSensitiveQuery(rawQuery string) bool {
	if rawQuery == "" {
		return false
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return true
	}
	for name := range values {
		name = strings.ToLower(name)
		for _, param := range sensitiveParams {
			if strings.Contains(name, param) {
				return true
			}
		}
	}
	return false
}

// RedactQuery returns path with its query appended, or a placeholder query
// when HasSensitiveQuery holds
func RedactQuery(path, rawQuery string) string {
	switch {
	case rawQuery == "":
		return path
	case HasSensitiveQuery(rawQuery):
		return path + "?" + redacted
	default:
		return path + "?" + rawQuery
	}
}
