package logger

import (
	"log/slog"
	"strings"
)

// Attribute names containing any of these are fully redacted.
// Plain "key" is deliberately absent: storage keys are not secrets.
var sensitiveKeyPatterns = []string{
	"token",
	"secret",
	"password",
	"passphrase",
	"encryption_key",
	"credential",
	"authorization",
}

// jwtPrefix starts every base64url-encoded JOSE header.
const jwtPrefix = "eyJ"

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if IsSensitiveValue(v) {
			return slog.String(a.Key, maskJWT(v))
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskJWT keeps the prefix and the last three characters.
func maskJWT(v string) string {
	if len(v) <= len(jwtPrefix)+6 {
		return jwtPrefix + "***"
	}
	body := v[len(jwtPrefix):]
	return jwtPrefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks s if it looks like a JWT.
func RedactString(s string) string {
	if IsSensitiveValue(s) {
		return maskJWT(s)
	}
	return s
}

// IsSensitiveKey reports whether an attribute name suggests a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether v looks like a JWT (three dot-separated
// segments starting with a JOSE header).
func IsSensitiveValue(v string) bool {
	return strings.HasPrefix(v, jwtPrefix) && strings.Count(v, ".") == 2
}
