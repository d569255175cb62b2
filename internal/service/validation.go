package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/edu-platform/edu-mgmt-api/pkg/errors"
)

// validationError folds every violated constraint into a single coded failure
// so the caller sees all problems at once instead of the first.
func validationError(err error) *appErrors.Error {
	violations, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	messages := make([]string, 0, len(violations))
	for _, v := range violations {
		switch v.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", v.Field()))
		case "min", "max", "len":
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", v.Field(), v.Tag(), v.Param()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", v.Field()))
		case "numeric":
			messages = append(messages, fmt.Sprintf("%s must contain only digits", v.Field()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s]", v.Field(), v.Param()))
		case "gt", "gte":
			messages = append(messages, fmt.Sprintf("%s must be %s %s", v.Field(), v.Tag(), v.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s violates %s", v.Field(), v.Tag()))
		}
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.Join(messages, "; "))
}

// conflictError reports every already-taken unique field in one message.
func conflictError(base *appErrors.Error, fields []string) *appErrors.Error {
	return appErrors.New(base.Code, 409, fmt.Sprintf("values already in use: %s", strings.Join(fields, ", ")))
}
