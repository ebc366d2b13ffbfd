// Copyright (c) 2025 Brice Suazo.
// All rights reserved. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var validate = newValidator() //nolint:gochecknoglobals

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})

	return v
}

// mustRegister panics when a custom tag cannot be registered
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}

// IsSlug reports whether s is lowercase letters and digits separated by
// single hyphens
func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// Validate checks struct tags and returns a 400 HTTPError naming the first
// failing field
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return BadRequest(describe(fe))
	}
	return BadRequest(err.Error())
}

func describe(fe validator.FieldError) string {
	// Namespace is "Struct.field.sub"; drop the struct name
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "slug":
		return field + " must contain only lowercase letters, digits and single hyphens"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s violates %s=%s", field, fe.Tag(), fe.Param())
	case "url":
		return field + " must be a valid URL"
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

// DecodeJSON parses the request body and validates it
func DecodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return BadRequest("Invalid JSON")
	}
	return Validate(v)
}
