package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"subtrack/internal/subscription"
)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// в ошибках используем имена полей из json-тегов
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Check проверяет структуру и возвращает первую ошибку как *subscription.ValidationError
func Check(req any) error {
	err := Validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	return &subscription.ValidationError{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	}
	return "is invalid"
}
