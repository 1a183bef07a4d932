package pwm

import (
	"errors"
	"fmt"
)

// Code classifies a failure. Codes are errors themselves so they can be used
// as errors.Is targets.
type Code int

const (
	OK                 Code = 0
	NotAPwmPin         Code = -1
	Busy               Code = -2
	SysctlWriteFailure Code = -3
	SysctlReadFailure  Code = -4
	BadHandle          Code = -5
	InvalidArgument    Code = -6
	// ZeroPeriod means the kernel reported a period of 0 for the channel, so
	// no duty cycle can be derived from its ratio.
	ZeroPeriod Code = -7
)

var descriptions = map[Code]string{
	OK:                 "no error",
	NotAPwmPin:         "not a PWM pin",
	Busy:               "pin is already in use",
	SysctlWriteFailure: "sysctl write failure",
	SysctlReadFailure:  "sysctl read failure",
	BadHandle:          "bad PWM handle",
	InvalidArgument:    "invalid argument",
	ZeroPeriod:         "channel period is zero",
}

// DescribeError returns a human-readable description of code.
func DescribeError(code Code) string {
	if s, ok := descriptions[code]; ok {
		return s
	}
	return fmt.Sprintf("unknown error %d", int(code))
}

func (c Code) Error() string { return DescribeError(c) }

// Error is returned by every Manager operation.
type Error struct {
	Op     string // open, write, read, release
	Target string // "pin 18", "handle 0"
	Code   Code
	// Err is the collaborator failure, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pwm: %s %s: %s: %v", e.Op, e.Target, DescribeError(e.Code), e.Err)
	}
	return fmt.Sprintf("pwm: %s %s: %s", e.Op, e.Target, DescribeError(e.Code))
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Code target, so errors.Is(err, pwm.Busy) works.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf extracts the Code carried by err. A nil err is OK.
func CodeOf(err error) (Code, bool) {
	if err == nil {
		return OK, true
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	var c Code
	if errors.As(err, &c) {
		return c, true
	}
	return 0, false
}

func pinErr(op string, pin int, code Code, err error) error {
	return &Error{Op: op, Target: fmt.Sprintf("pin %d", pin), Code: code, Err: err}
}

func handleErr(op string, h Handle, code Code, err error) error {
	return &Error{Op: op, Target: fmt.Sprintf("handle %d", int(h)), Code: code, Err: err}
}
