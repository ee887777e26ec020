package database

import (
	"fmt"
	"regexp"
	"strings"
)

// Table and column names arrive from the caller and are interpolated into
// SQL text, so they are restricted to a safe character set instead of
// being passed through verbatim.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a table or column
// name in SQL text.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

func checkIdentifier(name string) error {
	if !ValidIdentifier(name) {
		return fmt.Errorf("%w: invalid identifier %q", ErrBadRequest, name)
	}
	return nil
}

// checkDDLFragment guards free-form DDL text (column definitions, column
// types) against statement splitting. Full validation is not possible
// without an SQL parser; these endpoints accept trusted input.
func checkDDLFragment(fragment string) error {
	if strings.TrimSpace(fragment) == "" {
		return fmt.Errorf("%w: empty definition", ErrBadRequest)
	}
	if strings.ContainsAny(fragment, ";") {
		return fmt.Errorf("%w: definition must be a single fragment", ErrBadRequest)
	}
	return nil
}
