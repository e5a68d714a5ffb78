package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"eshop/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so clients can match them to inputs.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct runs the struct's validate tags and converts every failure
// into one ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		field := fieldPath(fe.Namespace())
		verr.Add(field, fieldMessage(field, fe))
	}
	return verr
}

// fieldPath drops the root struct name: "ProductInput.images[0]" -> "images[0]".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(field string, fe validator.FieldError) string {
	label := displayName(field)
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please provide a valid email"
	case "category":
		return "Please select a valid category"
	case "url", "uri", "http_url":
		return label + " must be a valid URL"
	case "min", "gte":
		if k := fe.Kind(); k == reflect.Slice || k == reflect.Array || k == reflect.Map {
			return label + " must contain at least " + bound(fe)
		}
		return label + " must be at least " + bound(fe)
	case "max", "lte":
		return label + " must be at most " + bound(fe)
	case "gt":
		return label + " must be greater than " + fe.Param()
	case "oneof":
		return label + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return label + " is invalid"
}

func bound(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return fe.Param() + " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return fe.Param() + " items"
	}
	return fe.Param()
}

func displayName(field string) string {
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
