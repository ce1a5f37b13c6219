package service

import (
	"errors"
	"strings"

	"ckd_auth_service/internal/auth"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	msgAllFieldsRequired   = "All fields are required"
	msgPasswordTooShort    = "Password must be at least 6 characters"
	msgCredentialsRequired = "Email and password are required"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return v
}

type signupInput struct {
	Name     string `validate:"notblank"`
	Email    string `validate:"notblank"`
	Password string `validate:"notblank,min=6"`
}

type loginInput struct {
	Email    string `validate:"notblank"`
	Password string `validate:"notblank"`
}

// validateSignup checks signup fields and returns them with name trimmed and
// email normalized. Blank fields are reported before a short password.
func validateSignup(name, email, password string) (signupInput, error) {
	in := signupInput{
		Name:     strings.TrimSpace(name),
		Email:    auth.NormalizeEmail(email),
		Password: password,
	}

	err := validate.Struct(in)
	if err == nil {
		return in, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return in, err
	}

	for _, fe := range verrs {
		if fe.Tag() == "notblank" {
			return in, &ValidationError{Message: msgAllFieldsRequired}
		}
	}

	return in, &ValidationError{Message: msgPasswordTooShort}
}

func validateLogin(email, password string) (loginInput, error) {
	in := loginInput{
		Email:    auth.NormalizeEmail(email),
		Password: password,
	}

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return in, err
		}
		return in, &ValidationError{Message: msgCredentialsRequired}
	}

	return in, nil
}
