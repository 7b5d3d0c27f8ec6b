package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

func FormatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s required", field)
	case "email":
		return "Invalid email"
	case "min":
		if field == "Password" {
			return fmt.Sprintf("Password should be at least %s chars long", fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len", "startswith", "numeric":
		if field == "Phone" {
			return "Invalid Phone. must be 10 chars."
		}
		return fmt.Sprintf("%s is invalid", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
