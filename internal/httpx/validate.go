package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their wire name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// check validates req and converts failures into a validationError.
func check(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := fieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return &validationError{fields: fields}
}

func message(fe validator.FieldError) string {
	f := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", f)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", f, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", f, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", f, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", f, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", f)
	case "eqfield":
		return fmt.Sprintf("The %s field must match %s.", f, strings.ToLower(fe.Param()))
	case "numeric", "number":
		return fmt.Sprintf("The %s field must be a number.", f)
	case "len":
		return fmt.Sprintf("The %s field must be %s digits.", f, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", f)
	}
}

// decodeJSON reads the body into req and validates it.
func decodeJSON(r *http.Request, req any) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return invalid("body", "The request body must be valid JSON.")
	}
	return check(req)
}
