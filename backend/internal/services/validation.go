package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	validators "github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// в ошибках поля называются так же, как в JSON
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
	return v
}

// validateStruct прогоняет теги validate и собирает ошибки по полям
func validateStruct(s interface{}) *ValidationError {
	verr := newValidationError()

	err := validate.Struct(s)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("_", err.Error())
		return verr
	}

	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

// attribute имя поля для текста сообщения: job_title -> job title
func attribute(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func fieldMessage(fe validator.FieldError) string {
	attr := attribute(fe.Field())

	switch fe.Tag() {
	case "required", "required_if", "notblank":
		return fmt.Sprintf("The %s field is required.", attr)
	case "oneof":
		return fmt.Sprintf("The %s must be one of the following: %s.", attr, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "datetime":
		return fmt.Sprintf("The %s must be a valid date.", attr)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", attr, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", attr, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", attr, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", attr, fe.Param())
	}
	return fmt.Sprintf("The %s is invalid.", attr)
}
