// Package httphandler contains the Echo HTTP handlers for the widget
// and agent APIs.
package httphandler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// timeFormat is the timestamp layout used by all API responses.
const timeFormat = time.RFC3339

// validate is the shared validator instance. validator.Validate caches
// struct metadata, so a single instance serves all handlers.
var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and flattens the result
// into a single user-facing message.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
