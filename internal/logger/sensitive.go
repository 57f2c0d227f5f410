package logger

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{
	// bearer tokens
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9\-._~+/]+=*)`),
	// key=value secrets
	regexp.MustCompile(`(?i)((?:api[_-]?key|appid|token|secret|passw(?:or)?d)[\s:=]+)([^;,&\s]{4,})`),
	// credentials embedded in broker and database URLs
	regexp.MustCompile(`(?i)((?:tcp|ssl|mqtt|mysql|postgres)://[^:/\s]+:)([^@\s]+)(@)`),
}

var sensitiveKeys = []string{"password", "passwd", "secret", "token", "api_key", "apikey", "appid", "dsn"}

// RedactSensitiveData replaces secrets found in free text with [REDACTED].
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, p := range sensitivePatterns {
		if p.NumSubexp() == 3 {
			input = p.ReplaceAllString(input, "${1}"+redacted+"${3}")
			continue
		}
		input = p.ReplaceAllString(input, "${1}"+redacted)
	}
	return input
}

// isSensitiveKey reports whether a field key names a secret.
func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// redactField hides string values of secret-named fields.
func redactField(f Field) Field {
	if s, ok := f.Value.(string); ok && s != "" && isSensitiveKey(f.Key) {
		return Field{Key: f.Key, Value: redacted}
	}
	return f
}
