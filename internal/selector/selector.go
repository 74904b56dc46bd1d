// Package selector resolves textual names to the variants of a closed enumeration.
package selector

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is matched by every UnknownError.
var ErrUnknown = errors.New("unknown variant")

// UnknownError is returned when a name does not resolve to any variant.
type UnknownError struct {
	Kind  string   // enumeration name, e.g. "DistanceMeasure"
	Name  string   // the name as given by the caller
	Valid []string // canonical names accepted by the enumeration
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown %s %q, choose from [%s]", e.Kind, e.Name, strings.Join(e.Valid, ", "))
}

// Is reports whether target is ErrUnknown.
func (e *UnknownError) Is(target error) bool {
	return target == ErrUnknown
}

// Normalize returns the canonical form of a variant name (trimmed, upper case, dashes as underscores).
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ToUpper(name)
}

// Lookup resolves name against table. The valid list is reported back in the error
// and should be the same static list the table was built from.
func Lookup[T any](kind, name string, table map[string]T, valid []string) (T, error) {
	if v, ok := table[Normalize(name)]; ok {
		return v, nil
	}
	var zero T
	return zero, &UnknownError{Kind: kind, Name: name, Valid: valid}
}
