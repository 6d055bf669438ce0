// Package secrets resolves credentials that are given inline, as ${VAR}
// references, or as mounted files such as Docker or Kubernetes secrets.
package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/birdscout/internal/errors"
	"github.com/tphakala/birdscout/internal/logger"
)

// maxFileSize bounds secret file reads; tokens and passwords are small.
const maxFileSize = 64 * 1024

// Expand replaces ${VAR} and ${VAR:-fallback} references in s with
// environment values. A reference without fallback to an unset variable
// is an error naming the variable, never its value.
func Expand(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s): %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret from path with trailing newlines trimmed. Files
// readable by group or others are accepted with a warning.
func ReadFile(path string) (string, error) {
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return "", fileError(err, clean, "stat")
	}
	if !info.Mode().IsRegular() {
		return "", errors.Newf("secret path is not a regular file: %s", clean).
			Component("secrets").
			Category(errors.CategoryFileIO).
			Build()
	}
	if info.Size() > maxFileSize {
		return "", errors.Newf("secret file exceeds %d bytes: %s", maxFileSize, clean).
			Component("secrets").
			Category(errors.CategoryLimit).
			Build()
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module("secrets").Warn("secret file is readable by group or others",
			logger.String("path", clean),
			logger.String("mode", perm.String()))
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", fileError(err, clean, "read")
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", errors.Newf("secret file is empty: %s", clean).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return Expand(value)
}

func fileError(err error, path, op string) error {
	category := errors.CategoryFileIO
	if os.IsNotExist(err) {
		category = errors.CategoryNotFound
	}
	return errors.New(err).
		Component("secrets").
		Category(category).
		Context("operation", op).
		Context("path", path).
		Build()
}
