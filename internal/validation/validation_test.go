package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_EmptyIsNil(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())
}

func TestErrors_Email(t *testing.T) {
	cases := map[string]bool{
		"alice@example.com":     true,
		"":                      false,
		"   ":                   false,
		"not-an-email":          false,
		"Alice <a@example.com>": false,
		"bob@localhost":         false,
	}
	for input, ok := range cases {
		t.Run(input, func(t *testing.T) {
			var errs Errors
			errs.Email("email", input)
			if ok {
				assert.NoError(t, errs.Err())
			} else {
				require.Error(t, errs.Err())
				assert.Equal(t, "email", errs[0].Field)
			}
		})
	}
}

func TestErrors_StrongPassword(t *testing.T) {
	var ok Errors
	ok.StrongPassword("password", "Aa123456??")
	assert.NoError(t, ok.Err())

	var weak Errors
	weak.StrongPassword("password", "abc")
	require.Error(t, weak.Err())
	messages := make([]string, 0, len(weak))
	for _, fe := range weak {
		messages = append(messages, fe.Message)
	}
	assert.Contains(t, messages, "must be at least 8 characters long")
	assert.Contains(t, messages, "must contain an uppercase letter")
	assert.Contains(t, messages, "must contain a digit")
	assert.Contains(t, messages, "must contain a symbol")
	assert.NotContains(t, messages, "must contain a lowercase letter")
}

func TestErrors_TooLongPassword(t *testing.T) {
	long := "Aa1?"
	for len(long) <= MaxPasswordBytes {
		long += "x"
	}
	var errs Errors
	errs.StrongPassword("password", long)
	require.Len(t, errs, 1)
	assert.Equal(t, "must be at most 72 bytes long", errs[0].Message)
}

func TestErrors_UnwrapsToFieldErrors(t *testing.T) {
	var errs Errors
	errs.Required("email", "")
	err := error(errs)

	var fe FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "email", fe.Field)
	assert.Equal(t, "validation failed: email: must not be empty", err.Error())
}
