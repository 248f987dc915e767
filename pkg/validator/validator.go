package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	// tagPattern accepts the short labels used for chain categories and
	// clothing sizes, e.g. "women", "children", "4-6 years".
	tagPattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ._+/-]*$`)
)

const maxTagLength = 64

// ValidationError represents a single field validation failure. Field is
// the JSON name, or the dotted path for nested and slice values.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		parts[i] = err.Field + " failed on " + err.Tag
		if err.Param != "" {
			parts[i] += "=" + err.Param
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	failures := make(ValidationErrors, 0, len(ve))
	for _, fe := range ve {
		failures = append(failures, ValidationError{
			Field: fieldPath(fe),
			Tag:   fe.Tag(),
			Param: fe.Param(),
		})
	}
	return failures
}

// ValidateVar validates a single value against the supplied tag list.
func ValidateVar(value any, tag string) error {
	return getValidator().Var(value, tag)
}

// fieldPath strips the struct name from the namespace so interestedSizes[2]
// is reported instead of createUserRequest.interestedSizes[2].
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if dot := strings.Index(ns, "."); dot >= 0 {
		return ns[dot+1:]
	}
	return fe.Field()
}

func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return true
	}
	return strings.TrimSpace(field.String()) != ""
}

func isTag(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	value := strings.TrimSpace(field.String())
	return utf8.RuneCountInString(value) <= maxTagLength && tagPattern.MatchString(value)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", notBlank)
		_ = validate.RegisterValidation("tag", isTag)
	})
	return validate
}
