package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/MrEthical07/tenantauth/middleware"
	"github.com/MrEthical07/tenantauth/password"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// FieldError names one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// requestError is a client error raised before the Engine is involved.
type requestError struct {
	status int
	detail string
	fields []FieldError
}

func (e *requestError) Error() string { return e.detail }

func badRequest(detail string) error {
	return &requestError{status: http.StatusBadRequest, detail: detail}
}

func unprocessable(detail string, fields ...FieldError) error {
	return &requestError{status: http.StatusUnprocessableEntity, detail: detail, fields: fields}
}

func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return unprocessable("Validation failed")
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return unprocessable("Validation failed", fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.Int {
			return "must be at least " + fe.Param()
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted only when optional is set.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF) && optional:
		case errors.As(err, &tooLarge):
			return &requestError{status: http.StatusRequestEntityTooLarge, detail: "Request body too large"}
		default:
			return badRequest("Invalid request body")
		}
	}
	return validateStruct(dst)
}

// writeError answers err. Request and password policy errors are reported
// as given; everything else goes through the Engine's status mapping, with
// 5xx causes logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var re *requestError
	switch {
	case errors.As(err, &re):
		body := map[string]any{"detail": re.detail}
		if len(re.fields) > 0 {
			body["errors"] = re.fields
		}
		middleware.WriteJSON(w, re.status, body)
		return
	case errors.Is(err, password.ErrPasswordTooLong), errors.Is(err, password.ErrEmptyPassword):
		middleware.WriteJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": err.Error()})
		return
	}

	if middleware.StatusCode(err) >= http.StatusInternalServerError {
		s.logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	middleware.WriteError(w, err)
}
