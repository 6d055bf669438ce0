package logger

import (
	"regexp"
	"strings"
)

const redactedValue = "[REDACTED]"

// sensitiveDataPatterns match credentials embedded in free-form strings such as URLs
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)(x-ebirdapitoken[\s:=]+)([^;,\s]+)`),
	regexp.MustCompile(`(?i)((api[_-]?key|access[_-]?token|secret|passw(or)?d)[\s:=]+)([^;,&\s]{5,})`),
	regexp.MustCompile(`(?i)([?&](key|token|apikey)=)([^&\s]+)`),
}

// sensitiveKeywords mark field keys whose string values are always redacted
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "credential", "token", "api_key",
	"apikey", "authorization", "dsn",
}

// RedactSensitiveData replaces credentials found in input with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}

	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAllStringFunc(input, func(match string) string {
			sub := pattern.FindStringSubmatch(match)
			return sub[1] + redactedValue
		})
	}

	return input
}

func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(keyLower, keyword) {
			return true
		}
	}
	return false
}
