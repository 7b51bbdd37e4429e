package dto

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/stocktake-api/internal/domain"
)

// validate instancia compartida; reporta los campos con su nombre JSON.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(f.Tag.Get("query"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate aplica las reglas `validate` de s. El error envuelve domain.ErrInvalidInput
// y su mensaje lista campo=regla ordenados.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field()+"="+fe.Tag())
	}
	sort.Strings(fields)
	return &validationError{fields: fields}
}

type validationError struct {
	fields []string
}

func (e *validationError) Error() string {
	return "datos inválidos: " + strings.Join(e.fields, ", ")
}

func (e *validationError) Unwrap() error { return domain.ErrInvalidInput }
