// Package validators defines the validators a compiled API description
// hands out: a closed set of variants sharing one Validate contract.
//
// A Validator is one of:
//
//   - *SimpleValidator: one compiled schema check
//   - *DiscriminatorValidator: a discriminator decision tree whose leaves are
//     compiled checks for concrete subtypes
//   - *ResponseValidator: a response body validator selected by content type
//     combined with a response headers validator
//
// Validate stores the errors of the most recent call, retrievable with
// Errors. Concurrent callers that need their own result should use Check,
// which has no side effects.
package validators

import "sync/atomic"

// CompiledCheck validates data against one compiled schema and returns the
// failures in evaluation order, or nil when data is valid.
type CompiledCheck func(data any) []ValidationError

// Validator validates data against part of an API contract.
type Validator interface {
	// Validate reports whether data is valid and records the errors of
	// this call for Errors.
	Validate(data any) bool
	// Errors returns the errors recorded by the most recent Validate call,
	// or nil when it succeeded.
	Errors() []ValidationError

	check(data any) []ValidationError
}

// Check validates data with v without recording errors on v.
func Check(v Validator, data any) []ValidationError {
	if v == nil {
		return nil
	}
	return v.check(data)
}

// lastErrors holds the errors of the most recent Validate call.
type lastErrors struct {
	errs atomic.Pointer[[]ValidationError]
}

func (l *lastErrors) record(errs []ValidationError) bool {
	if len(errs) == 0 {
		l.errs.Store(nil)
		return true
	}
	l.errs.Store(&errs)
	return false
}

// Errors returns the errors of the most recent Validate call, or nil.
func (l *lastErrors) Errors() []ValidationError {
	if p := l.errs.Load(); p != nil {
		return *p
	}
	return nil
}

// SimpleValidator wraps a single compiled check.
type SimpleValidator struct {
	lastErrors
	run CompiledCheck
}

// NewSimple returns a validator for one compiled check.
func NewSimple(check CompiledCheck) *SimpleValidator {
	return &SimpleValidator{run: check}
}

// Validate implements Validator.
func (v *SimpleValidator) Validate(data any) bool {
	return v.record(v.check(data))
}

func (v *SimpleValidator) check(data any) []ValidationError {
	if v.run == nil {
		return nil
	}
	return v.run(data)
}

var (
	_ Validator = (*SimpleValidator)(nil)
	_ Validator = (*DiscriminatorValidator)(nil)
	_ Validator = (*ResponseValidator)(nil)
)
