// Package emoji provides symbol constants for CLI output.
package emoji

// Symbol constants give console output a consistent visual language.
const (
	// Success marks a completed operation, such as an output file written.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Warning marks a non-fatal issue, such as a discarded input lead.
	Warning = "!"

	// Info marks general information.
	Info = "i"
)
