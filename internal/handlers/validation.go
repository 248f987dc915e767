package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/clothingloop/server/pkg/errors"
	"github.com/clothingloop/server/pkg/response"
	appValidator "github.com/clothingloop/server/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, validationError(err))
		return false
	}
	return true
}

func validationError(err error) *appErrors.AppError {
	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return appErrors.NewBadRequest("invalid request payload")
	}

	fields := make([]appErrors.FieldError, 0, len(failures))
	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		msg := describeFailure(failure)
		fields = append(fields, appErrors.FieldError{Field: failure.Field, Message: msg})
		messages = append(messages, msg)
	}
	return appErrors.NewValidation(strings.Join(messages, "; "), fields)
}

func describeFailure(failure appValidator.ValidationError) string {
	field := failure.Field
	switch failure.Tag {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "email":
		return field + " must be a valid email address"
	case "e164":
		return field + " must be an international phone number"
	case "tag":
		return field + " must be a short label of letters, digits and spaces"
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, failure.Param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, failure.Param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, failure.Param)
	}
	if failure.Param != "" {
		return fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param)
	}
	return fmt.Sprintf("%s failed validation: %s", field, failure.Tag)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
