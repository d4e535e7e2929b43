// Package validation runs struct-tag validation on service inputs and converts
// failures into VALIDATION_ERROR AppErrors.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"retailcore/internal/core/apperror"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("notfuture", notFuture)
		_ = v.RegisterValidation("nonnil_id", nonNilID)
		_ = v.RegisterValidation("neid", notEqualID)
		instance = v
	})
	return instance
}

// Struct validates s and returns nil or a *apperror.AppError with a per-field "fields" detail.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	first := verrs[0]
	return apperror.NewValidation(fieldPath(first)+": "+message(first)).
		WithDetail("fields", fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "nonnil_id":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "notfuture":
		return "must not be in the future"
	case "neid":
		return "must differ from " + fe.Param()
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	}
	return "is invalid (" + fe.Tag() + ")"
}

// notFuture accepts a zero time or a date not after today (UTC).
func notFuture(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	if t.IsZero() {
		return true
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return !t.UTC().Truncate(24 * time.Hour).After(today)
}

// nonNilID rejects the zero UUID.
func nonNilID(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Array || f.Len() != 16 {
		return false
	}
	for i := 0; i < f.Len(); i++ {
		if f.Index(i).Uint() != 0 {
			return true
		}
	}
	return false
}

// notEqualID requires the id to differ from the sibling field named by the param.
// The stock nefield tag compares arrays by length only, so it cannot be used for ids.
func notEqualID(fl validator.FieldLevel) bool {
	other, kind, ok := fl.GetStructFieldOK()
	if !ok || kind != reflect.Array {
		return true
	}
	return fl.Field().Interface() != other.Interface()
}
