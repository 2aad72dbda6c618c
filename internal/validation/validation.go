// Package validation collects field-level input errors before a request
// reaches a use case.
package validation

import (
	"net/mail"
	"strings"
	"unicode"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

const minPasswordLength = 8

// FieldError describes a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is a list of field errors. The zero value is ready to use.
type Errors []FieldError

func (e Errors) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for i, fe := range e {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(fe.Error())
	}
	return b.String()
}

func (e Errors) Unwrap() []error {
	out := make([]error, 0, len(e))
	for _, fe := range e {
		out = append(out, fe)
	}
	return out
}

// Add records a failure for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was recorded.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Required reports a field that is empty after trimming.
func (e *Errors) Required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "must not be empty")
		return false
	}
	return true
}

// Email validates a plain address such as taro@example.com.
func (e *Errors) Email(field, value string) {
	if !e.Required(field, value) {
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) || !strings.Contains(addr.Address, ".") {
		e.Add(field, "must be a valid email address")
	}
}

// StrongPassword requires mixed case, a digit and a symbol.
func (e *Errors) StrongPassword(field, value string) {
	if !e.Required(field, value) {
		return
	}
	if len([]rune(value)) < minPasswordLength {
		e.Add(field, "must be at least 8 characters long")
	}
	if len(value) > MaxPasswordBytes {
		e.Add(field, "must be at most 72 bytes long")
	}

	var lower, upper, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !lower {
		e.Add(field, "must contain a lowercase letter")
	}
	if !upper {
		e.Add(field, "must contain an uppercase letter")
	}
	if !digit {
		e.Add(field, "must contain a digit")
	}
	if !symbol {
		e.Add(field, "must contain a symbol")
	}
}
