package auth

import (
	"regexp"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// MinPasswordLength is the shortest accepted password, in characters.
const MinPasswordLength = 6

type credentials struct {
	Email    string `validate:"required,emailshape"`
	Password string `validate:"passwordlen"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on a malformed tag, which is a programming error.
	if err := v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("passwordlen", func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) >= MinPasswordLength
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidEmail reports whether email has an acceptable shape.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
