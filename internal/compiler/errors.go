package compiler

import "fmt"

// UnsupportedVerbError reports an operation whose verb cannot be dispatched.
// It is fatal for the whole generation run.
type UnsupportedVerbError struct {
	Verb string
	Path string
}

func (e *UnsupportedVerbError) Error() string {
	return fmt.Sprintf("compiler: unsupported HTTP verb %s on %s (allowed: GET, HEAD, PUT, POST, PATCH, DELETE)", e.Verb, e.Path)
}
