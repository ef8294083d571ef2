package bot

import (
	"errors"
	"fmt"
)

// User input errors. The handler has already replied when one of these is returned.
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMissingGroupName = errors.New("missing group name")
	ErrNoNumbers        = errors.New("no extracted numbers")
)

// CapabilityError wraps a failed call into the WhatsApp client.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

func capErr(op string, err error) error {
	return &CapabilityError{Op: op, Err: err}
}
