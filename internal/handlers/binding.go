package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bindingErrorMessage flattens a binding failure into a client-facing message.
// Validator findings are reported per field; anything else is treated as a
// malformed payload.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request format"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field %s failed on the %s rule", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
