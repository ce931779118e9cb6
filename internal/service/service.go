// Package service contains the business rules of the API.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → decodes requests into input DTOs, writes responses
//	Service (business layer) → validates, enforces uniqueness and scoping rules
//	Repository (data layer)  → reads/writes rows; FileStore reads/writes bytes
//
// Services take repository interfaces and a storage.FileStore, never concrete
// types, so tests can run them against in-memory SQLite and a temp directory.
// They return *apperror.AppError for every client-facing failure; the handler
// layer maps those to HTTP statuses. Anything else is an unexpected failure.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/projectdesk/internal/apperror"
)

// validate is safe for concurrent use and caches struct metadata, so one
// instance is shared by every service.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name ("cif", not "CIF") so error messages
	// match what the client sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs struct validation and converts the result into the
// API's error taxonomy. All "required" failures are reported together.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("service: validating input: %w", err)
	}

	var missing []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	if len(missing) > 0 {
		return apperror.MissingFields(missing...)
	}

	fe := verrs[0]
	if fe.Tag() == "email" {
		return apperror.InvalidEmailFormat(fmt.Sprint(fe.Value()))
	}
	return apperror.ValidationFailed(fe.Field(), fmt.Sprintf("%s failed the %q rule", fe.Field(), fe.Tag()))
}

// validEmail reports whether s is a syntactically valid email address.
func validEmail(s string) bool {
	return validate.Var(s, "email") == nil
}

// isNotFound reports whether err is a repository "no such record" error.
func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
