package governance

import (
	"errors"
	"fmt"
	"strings"
)

// ErrManifestInvalid marks a manifest rejected by the contract.
var ErrManifestInvalid = errors.New("manifest invalid")

// ManifestInvalidError carries the complete validation result.
type ManifestInvalidError struct {
	Result Result
}

func (e *ManifestInvalidError) Error() string {
	if e == nil {
		return ""
	}
	n := len(e.Result.Errors)
	switch n {
	case 0:
		return ErrManifestInvalid.Error()
	case 1:
		return fmt.Sprintf("%s: %s", ErrManifestInvalid.Error(), e.Result.Errors[0])
	}
	lines := make([]string, n)
	for i, v := range e.Result.Errors {
		lines[i] = "  - " + v.String()
	}
	return fmt.Sprintf("%s: %d violations:\n%s", ErrManifestInvalid.Error(), n, strings.Join(lines, "\n"))
}

func (e *ManifestInvalidError) Unwrap() error { return ErrManifestInvalid }
