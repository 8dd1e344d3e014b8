package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// Error is a rejected request body.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// DecodeAndValidate decodes the JSON body into out and runs validation.
func DecodeAndValidate(r *http.Request, out any, v *validatorv10.Validate) error {
	if err := Decode(r, out); err != nil {
		return err
	}
	return Check(out, v)
}

// Decode reads a JSON body into out. An empty body decodes as an empty
// object.
func Decode(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return &Error{Message: "Invalid request body", Fields: map[string]string{"body": err.Error()}}
	}
	return nil
}

// Check validates an already decoded value.
func Check(out any, v *validatorv10.Validate) error {
	if err := v.Struct(out); err != nil {
		return &Error{Message: "Invalid request", Fields: validationErrorsToMap(err)}
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		out["error"] = err.Error()
		return out
	}
	for _, fe := range ve {
		out[fieldPath(fe)] = message(fe)
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validatorv10.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email"
	case "min_lte_max":
		return fmt.Sprintf("must not exceed max (%s)", fe.Param())
	case "gtefield":
		return "must be >= " + strings.ToLower(fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
}
