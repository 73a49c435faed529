// Package urlutil validates and canonicalizes site URLs.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errMissingHost = errors.New("invalid URL: missing host")

// ValidateURL performs comprehensive URL validation
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: must be http or https, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return errMissingHost
	}

	return nil
}

// Canonicalize resolves href against origin and drops its query and fragment.
// It fails when the result is not on origin's host.
func Canonicalize(origin, href string) (string, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid origin: %w", err)
	}
	if base.Host == "" {
		return "", errMissingHost
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("invalid href: %w", err)
	}

	abs := base.ResolveReference(ref)
	if !strings.EqualFold(abs.Hostname(), base.Hostname()) {
		return "", fmt.Errorf("foreign host %q", abs.Host)
	}

	abs.Scheme = base.Scheme
	abs.Host = base.Host
	abs.RawQuery = ""
	abs.ForceQuery = false
	abs.Fragment = ""
	abs.RawFragment = ""
	return abs.String(), nil
}
