// Package logger provides structured logging for the stream coordinator.
package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if strVal != "" {
					return slog.String(a.Key, redactedValue)
				}
				break
			}
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// redactAttr returns a redacted version of the attribute.
func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal != "" {
			return slog.String(a.Key, redactedValue)
		}
	}
	return a
}

// RedactString manually redacts a string value that looks sensitive.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if value == "" {
		return value
	}
	return redactedValue
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
