package failure

import (
	"fmt"
	"strings"
)

// InvalidEmail reports a malformed email address.
type InvalidEmail struct {
	validation
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

func (f InvalidEmail) Kind() Kind       { return KindInvalidEmail }
func (f InvalidEmail) accept(v visitor) { v.invalidEmail(f) }
func (f InvalidEmail) Error() string {
	return fmt.Sprintf("%s: invalid email address %q", f.Field, f.Value)
}

// InvalidAmount reports an amount outside its allowed bounds. Min and Max are
// zero when the bound does not apply.
type InvalidAmount struct {
	validation
	Field string `json:"field"`
	Min   int64  `json:"min,omitempty"`
	Max   int64  `json:"max,omitempty"`
}

func (f InvalidAmount) Kind() Kind       { return KindInvalidAmount }
func (f InvalidAmount) accept(v visitor) { v.invalidAmount(f) }
func (f InvalidAmount) Error() string {
	if f.Max > 0 {
		return fmt.Sprintf("%s: amount must be between %d and %d", f.Field, f.Min, f.Max)
	}
	return fmt.Sprintf("%s: invalid amount", f.Field)
}

// RequiredField reports a missing value.
type RequiredField struct {
	validation
	Field string `json:"field"`
}

func (f RequiredField) Kind() Kind       { return KindRequiredField }
func (f RequiredField) accept(v visitor) { v.requiredField(f) }
func (f RequiredField) Error() string    { return fmt.Sprintf("%s is required", f.Field) }

// InvalidFormat reports a value that does not match the expected format.
type InvalidFormat struct {
	validation
	Field          string `json:"field"`
	ExpectedFormat string `json:"expected_format"`
}

func (f InvalidFormat) Kind() Kind       { return KindInvalidFormat }
func (f InvalidFormat) accept(v visitor) { v.invalidFormat(f) }
func (f InvalidFormat) Error() string {
	return fmt.Sprintf("%s: expected format %s", f.Field, f.ExpectedFormat)
}

// InvalidPassword reports a password that misses one or more requirements.
type InvalidPassword struct {
	validation
	Field        string   `json:"field"`
	Requirements []string `json:"requirements,omitempty"`
}

func (f InvalidPassword) Kind() Kind       { return KindInvalidPassword }
func (f InvalidPassword) accept(v visitor) { v.invalidPassword(f) }
func (f InvalidPassword) Error() string {
	if len(f.Requirements) == 0 {
		return fmt.Sprintf("%s: invalid password", f.Field)
	}
	return fmt.Sprintf("%s: password must satisfy %s", f.Field, strings.Join(f.Requirements, ", "))
}

// PasswordMismatch reports a confirmation field that differs from the password.
type PasswordMismatch struct {
	validation
	Field string `json:"field"`
}

func (f PasswordMismatch) Kind() Kind       { return KindPasswordMismatch }
func (f PasswordMismatch) accept(v visitor) { v.passwordMismatch(f) }
func (f PasswordMismatch) Error() string    { return fmt.Sprintf("%s: passwords do not match", f.Field) }

// InvalidRange reports a numeric value outside [Min, Max].
type InvalidRange struct {
	validation
	Field string  `json:"field"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (f InvalidRange) Kind() Kind       { return KindInvalidRange }
func (f InvalidRange) accept(v visitor) { v.invalidRange(f) }
func (f InvalidRange) Error() string {
	return fmt.Sprintf("%s: value must be between %g and %g", f.Field, f.Min, f.Max)
}
