package config

import (
	"fmt"
	"net/url"
	"strings"
)

// SanitizeTrustedOrigin validates and normalizes an entry of the CORS
// trusted-origin allowlist. It returns the host (optionally with port) in
// lowercase with any scheme removed. Paths, queries, fragments, wildcards,
// and empty values are rejected.
func SanitizeTrustedOrigin(raw string) (string, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", fmt.Errorf("origin cannot be empty")
	}

	cleaned = strings.TrimPrefix(cleaned, "http://")
	cleaned = strings.TrimPrefix(cleaned, "https://")
	cleaned = strings.TrimSuffix(cleaned, "/")

	if strings.ContainsAny(cleaned, " \t\r\n") {
		return "", fmt.Errorf("origin cannot contain whitespace")
	}
	if strings.Contains(cleaned, "*") {
		return "", fmt.Errorf("wildcards are not allowed in trusted origins")
	}

	// url.Parse validates host[:port] without allowing paths or queries.
	u, err := url.Parse("http://" + cleaned)
	if err != nil {
		return "", fmt.Errorf("invalid origin format")
	}
	if u.Host == "" || u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("origin must not include path, query, or fragment")
	}

	return u.Host, nil
}
