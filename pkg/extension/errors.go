package extension

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed declarations.
// These enable reliable error checking with errors.Is()
var (
	// ErrEmptyName indicates a descriptor was declared without a name
	ErrEmptyName = errors.New("extension name is empty")

	// ErrInvalidName indicates a dotted name with an empty segment
	ErrInvalidName = errors.New("extension name has an empty segment")

	// ErrTargetConflict indicates several names were declared with one explicit target
	ErrTargetConflict = errors.New("explicit target cannot be shared by several extensions")

	// ErrMissingSource indicates a prebuilt extension without an artifact
	ErrMissingSource = errors.New("prebuilt extension has no source artifact")
)

// DescriptorError reports a declaration that cannot produce a descriptor.
type DescriptorError struct {
	Name string
	Err  error
}

func (e *DescriptorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid extension declaration: %v", e.Err)
	}
	return fmt.Sprintf("invalid extension %q: %v", e.Name, e.Err)
}

func (e *DescriptorError) Unwrap() error { return e.Err }
