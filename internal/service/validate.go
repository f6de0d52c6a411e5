package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// thaiMobile Thai mobile numbers: 10 digits starting 06, 08 or 09.
var thaiMobile = regexp.MustCompile(`^0[689]\d{8}$`)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("thmobile", func(fl validator.FieldLevel) bool {
		return thaiMobile.MatchString(fl.Field().String())
	})
	return v
}

// validateStruct maps validator errors to ErrValidation with one message per field.
func validateStruct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "thmobile":
		return field + " must be a Thai mobile number (0[689]XXXXXXXX)"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
