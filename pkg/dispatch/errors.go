package dispatch

import (
	"fmt"
	"strings"

	"rapidresq/resq/pkg/ecl/ast"
)

// ExecutionError reports that a parsed command cannot be executed, as
// opposed to a command that failed to parse.
type ExecutionError struct {
	CommandType ast.CommandType
	Missing     []string // required attributes that were empty
	Reason      string
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("cannot execute %s: missing %s", e.CommandType, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("cannot execute %s: %s", e.CommandType, e.Reason)
}

func missingAttrs(ct ast.CommandType, attrs map[string]string) error {
	var missing []string
	for _, name := range sortedKeys(attrs) {
		if strings.TrimSpace(attrs[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ExecutionError{CommandType: ct, Missing: missing}
}
