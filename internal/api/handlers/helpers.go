package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathParam(r *http.Request, key string) string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.PathValue(key))
}

// decodeJSON decodes the request body into dst and runs struct
// validation. Unknown fields are tolerated; malformed JSON is not.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// validationDetails flattens validator errors into a field→message map
// for the error envelope's details.
func validationDetails(err error) map[string]string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}
	details := make(map[string]string, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		field := fieldError.Field()
		switch fieldError.Tag() {
		case "required":
			details[field] = "is required"
		case "email":
			details[field] = "must be a valid email address"
		case "min":
			details[field] = fmt.Sprintf("must be at least %s characters", fieldError.Param())
		case "max":
			details[field] = fmt.Sprintf("must be at most %s characters", fieldError.Param())
		default:
			details[field] = fmt.Sprintf("failed %s validation", fieldError.Tag())
		}
	}
	return details
}
