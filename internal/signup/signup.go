// Package signup validates the signup form before it is submitted
package signup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form mirrors the signup form fields
type Form struct {
	DisplayName     string `json:"display_name" validate:"required,max=255"`
	Email           string `json:"email" validate:"required,email"`
	EmailConfirm    string `json:"email_confirm" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// Issue is a single validation message attached to a form field.
// Loc follows the ["", field] convention of the server-side validator.
type Issue struct {
	Type string   `json:"type"`
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
}

func fieldError(field, msg string) Issue {
	return Issue{Type: "error", Loc: []string{"", field}, Msg: msg}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the form. blacklist lists characters that may not appear
// in a display name because they would break profile URLs.
func Validate(form Form, blacklist string) []Issue {
	issues := structIssues(form)

	if blacklist != "" && strings.ContainsAny(form.DisplayName, blacklist) {
		msg := fmt.Sprintf("Must not contain any of the following characters: %s", blacklist)
		issues = append(issues, fieldError("display_name", msg))
	}

	if form.Email != form.EmailConfirm {
		msg := "The provided email addresses don't match"
		issues = append(issues, fieldError("email", msg), fieldError("email_confirm", msg))
	}

	if form.Password != form.PasswordConfirm {
		msg := "The provided passwords don't match"
		issues = append(issues, fieldError("password", msg), fieldError("password_confirm", msg))
	}

	return issues
}

var jsonNames = map[string]string{
	"DisplayName":     "display_name",
	"Email":           "email",
	"EmailConfirm":    "email_confirm",
	"Password":        "password",
	"PasswordConfirm": "password_confirm",
}

func structIssues(form Form) []Issue {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{fieldError("", err.Error())}
	}

	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, fieldError(jsonNames[fe.Field()], describe(fe)))
	}
	return issues
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return fmt.Sprintf("Must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", fe.Param())
	}
	return fmt.Sprintf("Failed the %q check", fe.Tag())
}
