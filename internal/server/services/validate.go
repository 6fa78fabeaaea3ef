package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/hamarchia/ClinicSystem/internal/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput checks every tagged field of in. When fields is non-empty
// only those struct fields are checked (partial updates).
func validateInput(in any, fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = validate.StructPartial(in, fields...)
	} else {
		err = validate.Struct(in)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		names := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			names = append(names, fe.Field())
		}
		return common.Validationf("missing or blank fields: %s", strings.Join(names, ", "))
	}
	return common.Validationf("%v", err)
}

// present lists the names of the non-nil pointer fields of a struct.
func present(in any) []string {
	v := reflect.Indirect(reflect.ValueOf(in))
	t := v.Type()
	var names []string
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Pointer && !f.IsNil() {
			names = append(names, t.Field(i).Name)
		}
	}
	return names
}
