// Package secrets resolves credential values from environment variables
// and mounted secret files so they stay out of config.yaml. Values are
// never logged.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxSecretFileSize bounds secret file reads. Secrets are tokens and
// DSNs, not payloads.
const maxSecretFileSize = 64 * 1024

// ExpandString resolves ${VAR} and ${VAR:-default} references in a
// configuration value. Literal strings pass through unchanged. A
// reference to an unset variable without a fallback is an error so a
// missing credential fails loudly at startup instead of producing a
// half-expanded URL.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missingVars []string

	expanded := os.Expand(s, func(key string) string {
		varName := key
		defaultValue := ""
		fallbackProvided := false

		if idx := strings.Index(key, ":-"); idx != -1 {
			varName = key[:idx]
			defaultValue = key[idx+2:]
			fallbackProvided = true
		}

		value := os.Getenv(varName)
		if value == "" {
			if fallbackProvided {
				return defaultValue
			}
			missingVars = append(missingVars, varName)
			return ""
		}
		return value
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variable(s): %s", strings.Join(missingVars, ", "))
	}

	return expanded, nil
}

// ReadFile reads a secret from a file, the Docker and Kubernetes
// mounted-secret convention. Trailing newlines are trimmed, an empty
// file is an error.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("secret file path is empty")
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Stat(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret file not found: %s", cleanPath)
		}
		return "", fmt.Errorf("failed to stat secret file %s: %w", cleanPath, err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", cleanPath)
	}

	if info.Size() > maxSecretFileSize {
		return "", fmt.Errorf("secret file too large (max %d bytes): %s", maxSecretFileSize, cleanPath)
	}

	// This package sits below the logging layer in the import graph,
	// so the warning goes to stderr.
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		fmt.Fprintf(os.Stderr, "WARNING: secret file is readable by group/other (perms %04o): %s\n", perm, cleanPath)
	}

	data, err := os.ReadFile(cleanPath) //nolint:gosec // G304: path is operator-configured
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", cleanPath, err)
	}

	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("secret file is empty: %s", cleanPath)
	}

	return secret, nil
}

// Resolve picks the secret value from the configured sources. A file
// path wins over an inline value, the inline value gets environment
// expansion. Both empty resolves to empty, optional secrets stay
// optional.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		secret, err := ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read secret from file: %w", err)
		}
		return secret, nil
	}

	if value != "" {
		return ExpandString(value)
	}

	return "", nil
}
