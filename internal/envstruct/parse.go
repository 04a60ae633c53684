package envstruct

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrEnvNotSet    = errors.New("environment variable not set")
	ErrInvalidValue = errors.New("v must be a pointer to a struct")
)

// Populate fills the string fields of the struct pointed to by v from the
// environment.
//
// Fields are tagged `env:"NAME"` and looked up through lookupEnv, which has
// the same signature as [os.LookupEnv]. A variable that is not set falls back
// to the `envDefault` tag value; when neither is present the field reports
// ErrEnvNotSet. Every field is checked before returning, so one call surfaces
// all configuration problems at once.
func Populate(v any, lookupEnv func(string) (string, bool)) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Ptr {
		return fmt.Errorf("%w: not a pointer: %v", ErrInvalidValue, v)
	}
	target := ptr.Elem()
	if target.Kind() != reflect.Struct {
		return fmt.Errorf("%w: not a struct: %v", ErrInvalidValue, v)
	}

	var errs []error
	targetType := target.Type()
	for i := range targetType.NumField() {
		field := target.Field(i)
		fieldType := targetType.Field(i)

		name, tagged := fieldType.Tag.Lookup("env")
		if !tagged {
			continue
		}
		if !field.CanSet() {
			errs = append(errs, fmt.Errorf("%w: cannot set field %s", ErrInvalidValue, fieldType.Name))
			continue
		}
		if field.Kind() != reflect.String {
			errs = append(errs, fmt.Errorf("%w: field %s is %s, only strings are supported",
				ErrInvalidValue, fieldType.Name, field.Kind()))
			continue
		}

		value, ok := lookupEnv(name)
		if !ok {
			if value, ok = fieldType.Tag.Lookup("envDefault"); !ok {
				errs = append(errs, fmt.Errorf("%w: %s", ErrEnvNotSet, name))
				continue
			}
		}
		field.SetString(value)
	}

	return errors.Join(errs...)
}
