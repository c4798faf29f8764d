package command

import "fmt"

// FormatError is a malformed address argument.
type FormatError struct {
	Field AddressField
	Arg   string
}

// Error implements error.
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s format: %q", e.Field.Name(), e.Arg)
}

// Response is the console text for the error.
func (e *FormatError) Response() string {
	return fmt.Sprintf("❌ Invalid %s format.", e.Field.Name())
}

// RangeError is a numeric argument that is not an integer or is out of
// bounds.
type RangeError struct {
	Name     string
	Arg      string
	Min, Max int64
	// Hint is the console text, e.g. "Invalid port. Must be between 1 and 65535."
	Hint string
}

// Error implements error.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %q out of range [%d, %d]", e.Name, e.Arg, e.Min, e.Max)
}

// Response is the console text for the error.
func (e *RangeError) Response() string {
	return "❌ " + e.Hint
}
