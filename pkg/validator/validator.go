package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/ayushbirla71/survey-backend/pkg/errutil"
	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json field names instead of go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "schema"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	return v
}

// Validate checks the validate tags of a request struct. Any failure is returned as a validation error
// naming the first offending field.
func Validate(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		if fe.Param() != "" {
			return errutil.ValidationError(fmt.Errorf("invalid %s: must satisfy %s=%s", fieldPath(fe), fe.Tag(), fe.Param()))
		}
		return errutil.ValidationError(fmt.Errorf("invalid %s: must satisfy %s", fieldPath(fe), fe.Tag()))
	}

	return errutil.ValidationError(err)
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
