package mcp

import (
	"fmt"
)

// invalidParams builds the error returned for malformed tool input. The
// SDK surfaces it to the client as a tool error.
func invalidParams(message string) error {
	return fmt.Errorf("invalid params: %s", message)
}
