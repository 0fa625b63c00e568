package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raysh454/sitecheck/internal/model"
)

// Params are the per-test options stored on the record.
type Params map[string]any

// String returns the string value at key, or def when absent or empty.
func (p Params) String(key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Strings returns a string list at key, accepting []string or a decoded
// JSON array.
func (p Params) Strings(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

const (
	ParamScanType = "scanType"
	ParamBrowsers = "browsers"
)

// Scan types accepted on security tests. The observatory runs one kind of
// scan; the value is recorded on the result.
var ScanTypes = []string{"baseline", "active", "full"}

var ErrInvalidParams = errors.New("invalid test parameters")

// ValidateParams checks the shape of the known parameters. Unknown keys are
// kept as-is.
func ValidateParams(t model.TestType, p Params) error {
	if v, ok := p[ParamScanType]; ok {
		s, isString := v.(string)
		if !isString || !contains(ScanTypes, s) {
			return fmt.Errorf("%w: scanType must be one of %s", ErrInvalidParams, strings.Join(ScanTypes, ", "))
		}
	}
	if v, ok := p[ParamBrowsers]; ok {
		switch list := v.(type) {
		case []string:
		case []any:
			for _, item := range list {
				if _, isString := item.(string); !isString {
					return fmt.Errorf("%w: browsers must be a list of names", ErrInvalidParams)
				}
			}
		default:
			return fmt.Errorf("%w: browsers must be a list of names", ErrInvalidParams)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
