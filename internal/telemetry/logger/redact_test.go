package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Log with sensitive key names (should be redacted regardless of value)
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"password", "mysecret123", "***REDACTED***"},
		{"user_password", "hunter2", "***REDACTED***"},
		{"api_key", "some-key-value", "***REDACTED***"},
		{"auth_token", "bearer-xyz", "***REDACTED***"},
		{"credential", "cred123", "***REDACTED***"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}

			val, ok := logEntry[tt.key].(string)
			if !ok {
				t.Fatalf("Expected %s field in log", tt.key)
			}

			if val != tt.expected {
				t.Errorf("Key %q should be redacted to %q, got %q", tt.key, tt.expected, val)
			}
		})
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Normal values should not be redacted
	l.Info("user action", "user_id", "user123", "stream", "orders")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if userID, ok := logEntry["user_id"].(string); !ok || userID != "user123" {
		t.Errorf("Normal user_id should not be redacted, got: %v", logEntry["user_id"])
	}

	if stream, ok := logEntry["stream"].(string); !ok || stream != "orders" {
		t.Errorf("Normal stream should not be redacted, got: %v", logEntry["stream"])
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "non-empty value",
			input:    "anything-at-all",
			expected: "***REDACTED***",
		},
		{
			name:     "empty value",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RedactString(tt.input)
			if result != tt.expected {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"user_password", true},
		{"PASSWORD", true},
		{"secret", true},
		{"api_secret", true},
		{"token", true},
		{"auth_token", true},
		{"key", true},
		{"api_key", true},
		{"credential", true},
		{"auth", true},
		{"bearer", true},
		{"username", false},
		{"user_id", false},
		{"stream", false},
		{"request_id", false},
		{"data", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			result := IsSensitiveKey(tt.key)
			if result != tt.sensitive {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, result, tt.sensitive)
			}
		})
	}
}
