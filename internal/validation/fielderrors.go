// Package validation collects field-scoped domain violations.  Availability,
// state-machine and financial checks all append to a single FieldErrors value
// per request so the caller sees every problem at once instead of only the
// first one.
package validation

import (
	"sort"
	"strings"
)

// FieldErrors maps a field name to the list of messages recorded against it.
// The zero value is not usable; call New.
type FieldErrors map[string][]string

// New returns an empty, ready-to-use FieldErrors.
func New() FieldErrors { return make(FieldErrors) }

// Add records a message against a field.
func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// Any reports whether at least one violation has been recorded.
func (fe FieldErrors) Any() bool { return len(fe) > 0 }

// Error implements the error interface so services can return a FieldErrors
// directly.  Fields are sorted for deterministic output.
func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(fe[f], ", "))
	}
	return b.String()
}
