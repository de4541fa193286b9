package record

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/garnizeh/staffdir/pkg/apperror"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		// report json names, the ones callers send
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		validate = v
	})
	return validate
}

// validateStruct converts validator failures into an apperror.ValidationError
// naming the first offending field.
func validateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &apperror.ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	return &apperror.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "must not be empty"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

func validateUpload(u *Upload) error {
	if u == nil {
		return nil
	}
	if len(u.Data) == 0 {
		return &apperror.ValidationError{Field: "photo", Message: "must not be empty"}
	}
	return nil
}
