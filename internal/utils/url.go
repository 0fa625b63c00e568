package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL       = errors.New("url is empty")
	ErrMissingHost    = errors.New("url has no host")
	ErrInvalidURL     = errors.New("url is not a valid website address")
	ErrUnsupportedURL = errors.New("url scheme must be http or https")
)

// sitePattern is the accepted shape of a submitted website address: optional
// http(s) scheme, dotted host with an alphabetic TLD, plain path. Ports and
// query strings are rejected.
var sitePattern = regexp.MustCompile(`(?i)^(https?://)?([\da-z.-]+)\.([a-z.]{2,6})([/\w .-]*)*/?$`)

// ValidateSiteURL checks raw against the public-site pattern. With
// allowLocal, any absolute http(s) URL with a host is also accepted, which
// covers localhost, explicit ports and query strings.
func ValidateSiteURL(raw string, allowLocal bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrEmptyURL
	}
	if sitePattern.MatchString(raw) {
		return nil
	}
	if !allowLocal {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q", ErrUnsupportedURL, raw)
	}
	if u.Hostname() == "" {
		return ErrMissingHost
	}
	return nil
}

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	StripTrailingSlash bool   // treat /a and /a/ the same (root "/" is kept)
	DefaultScheme      string // scheme assumed for schemeless input; empty requires one
}

// Canonicalize returns a deterministic absolute URL: lowercase scheme and
// punycode host, default ports dropped, credentials and fragment removed,
// query keys sorted.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	if opts.DefaultScheme != "" && !strings.Contains(raw, "://") {
		raw = opts.DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", ErrMissingHost
	}

	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if puny, err := idna.Lookup.ToASCII(host); err == nil {
		host = puny
	}

	port := u.Port()
	switch {
	case (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443"):
		u.Host = host
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	default:
		u.Host = host
	}

	u.User = nil
	u.Fragment = ""

	cleanPath := path.Clean(u.Path)
	if cleanPath == "." {
		cleanPath = "/"
	}
	if opts.StripTrailingSlash && len(cleanPath) > 1 {
		cleanPath = strings.TrimRight(cleanPath, "/")
	}
	u.Path = cleanPath

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := url.Values{}
	for _, k := range keys {
		values := q[k]
		sort.Strings(values)
		for _, v := range values {
			ordered.Add(k, v)
		}
	}
	u.RawQuery = ordered.Encode()

	return u.String(), nil
}

// ASCIIHostname returns the punycode hostname of raw, assuming https when no
// scheme is given.
func ASCIIHostname(raw string) (string, error) {
	canon, err := Canonicalize(raw, CanonicalizeOptions{DefaultScheme: "https"})
	if err != nil {
		return "", err
	}
	u, err := url.Parse(canon)
	if err != nil {
		return "", err
	}
	return u.Hostname(), nil
}
