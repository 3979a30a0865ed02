// Package bind decodes and validates JSON request bodies
package bind

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// ValidatorSvc pairs the validator with its english translator
type ValidatorSvc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce    sync.Once
	vSvc     *ValidatorSvc
	jsonMore = func(dec *json.Decoder) bool { return dec.More() } // seam
)

// short messages replacing the stock en ones; {0} is the field, {1} the param
var messages = map[string]string{
	"min":         "{0} must be at least {1}",
	"max":         "{0} must be at most {1}",
	"json_object": "{0} must be a JSON object",
}

// Get returns the process wide validator, built on first use.
// Field names in messages come from json tags
func Get() *ValidatorSvc {
	vOnce.Do(func() {
		loc := en.New()
		trans, _ := ut.New(loc, loc).GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		_ = v.RegisterValidation("json_object", isJSONObject)
		for tag, text := range messages {
			registerMessage(v, trans, tag, text)
		}
		vSvc = &ValidatorSvc{Validator: v, Translator: trans}
	})
	return vSvc
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// JSONOptions controls parsing. The zero value allows unknown fields and sets
// no size limit
type JSONOptions struct {
	MaxBytes        int64 // 0 disables the limit
	DisallowUnknown bool
	AllowEmptyBody  bool
}

// ParseJSON decodes the body into T and validates it.
// Decode failures are ErrorCodeJSON, rule failures ErrorCodeValidation with
// the offending json field attached
func ParseJSON[T any](r *http.Request, opts ...JSONOptions) (T, error) {
	var zero T
	o := JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true}
	if len(opts) > 0 {
		o = opts[0]
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.C(r.Context()).Warn().Err(err).Msg("request body close failed")
		}
	}()

	body, empty := peek(r.Body)
	if empty && !o.AllowEmptyBody {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}
	if o.MaxBytes > 0 {
		body = http.MaxBytesReader(nil, io.NopCloser(body), o.MaxBytes)
	}

	dec := json.NewDecoder(body)
	if o.DisallowUnknown {
		dec.DisallowUnknownFields()
	}
	var dst T
	if err := dec.Decode(&dst); err != nil {
		if o.AllowEmptyBody && errors.Is(err, io.EOF) {
			return dst, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return zero, perr.JSONErrf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if jsonMore(dec) {
		return zero, perr.JSONErrf("unexpected trailing data")
	}

	if err := Get().Validator.Struct(dst); err != nil {
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			logger.C(r.Context()).Error().Err(inv).Msg("validator cannot check this type")
			return zero, perr.JSONErrf("validation error")
		}
		field, msg := fieldAndMessage(err)
		return zero, perr.WithField(perr.New(perr.ErrorCodeValidation, msg), field)
	}
	return dst, nil
}

// peek reads one byte to tell an empty body apart, returning a reader that
// still yields the whole body
func peek(rc io.Reader) (io.Reader, bool) {
	var one [1]byte
	n, _ := rc.Read(one[:])
	if n == 0 {
		return rc, true
	}
	return io.MultiReader(bytes.NewReader(one[:n]), rc), false
}

// fieldAndMessage returns the first failing field and its translated message
func fieldAndMessage(err error) (field, message string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field(), verrs[0].Translate(Get().Translator)
	}
	return "", err.Error()
}

// isJSONObject accepts raw JSON (json.RawMessage, []byte or string) whose
// top level value is an object
func isJSONObject(fl validator.FieldLevel) bool {
	var raw []byte
	switch f := fl.Field(); f.Kind() {
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.Uint8 {
			return false
		}
		raw = f.Bytes()
	case reflect.String:
		raw = []byte(f.String())
	default:
		return false
	}
	raw = bytes.TrimSpace(raw)
	return len(raw) > 1 && raw[0] == '{' && json.Valid(raw)
}
