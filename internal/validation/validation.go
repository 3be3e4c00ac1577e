// Package validation wires go-playground/validator for request and service
// input checks and converts its failures into apperr field errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Zorochan404/inf-chat/internal/apperr"
	"github.com/Zorochan404/inf-chat/internal/ids"
)

const (
	objectIDTag = "objectid"
	notBlankTag = "notblank"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON (or query) names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation(objectIDTag, func(fl validator.FieldLevel) bool {
		return ids.Valid(fl.Field().String())
	})
	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{objectIDTag, notBlankTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case objectIDTag:
		return fe.Field() + " must be a valid id"
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	}
	return fe.Field() + " is invalid"
}

// Struct validates s and returns an *apperr.Error listing every failed field.
func Struct(s any) error {
	if err := validate.Struct(s); err != nil {
		return Translate(err)
	}
	return nil
}

// Var validates a single value against tag, reporting it as field.
func Var(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg := strings.TrimSpace(field + " " + strings.TrimPrefix(verrs[0].Translate(translator), verrs[0].Field()))
		return apperr.Validation(msg, apperr.FieldError{Field: field, Message: msg})
	}
	return apperr.Validation(field + " is invalid")
}

// Translate converts binding and validation failures into a validation error.
// Errors already in the taxonomy pass through unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: fe.Translate(translator)})
		}
		return apperr.Validation(fields[0].Message, fields...)
	}

	return apperr.Validation("invalid request body")
}

type ginValidator struct{}

// ValidateStruct satisfies gin's binding.StructValidator.
func (ginValidator) ValidateStruct(obj any) error {
	if obj == nil {
		return nil
	}
	value := reflect.ValueOf(obj)
	for value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(obj)
}

func (ginValidator) Engine() any {
	return validate
}

// InstallGin makes gin's ShouldBind* helpers use the shared validator.
func InstallGin() {
	binding.Validator = ginValidator{}
}
