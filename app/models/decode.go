package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrInvalidPayload marks a backend answer that did not match the expected
// shape. Callers match it with errors.Is.
var ErrInvalidPayload = errors.New("models: invalid payload")

// Validator is implemented by every model the decoder checks.
type Validator interface {
	Validate() error
}

// Decode unmarshals raw into dest and validates the result. dest is a
// pointer to a model or to a slice of models; every element is checked.
func Decode(raw []byte, dest interface{}) error {
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, typeName(dest), err)
	}
	return Check(dest)
}

// Check runs Validate on v, or on each element when v is a slice.
func Check(v interface{}) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		if val, ok := rv.Interface().(Validator); ok && rv.Elem().Kind() != reflect.Slice {
			return wrapInvalid(v, -1, val.Validate())
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if val, ok := rv.Index(i).Interface().(Validator); ok {
				if err := wrapInvalid(v, i, val.Validate()); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if val, ok := rv.Interface().(Validator); ok {
		return wrapInvalid(v, -1, val.Validate())
	}
	return nil
}

func wrapInvalid(v interface{}, index int, err error) error {
	if err == nil {
		return nil
	}
	if index >= 0 {
		return fmt.Errorf("%w: %s[%d]: %v", ErrInvalidPayload, typeName(v), index, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, typeName(v), err)
}

func typeName(v interface{}) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return "nil"
	}
	return t.String()
}
