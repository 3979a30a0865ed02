package bind

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "armvalidator/internal/platform/errors"

	"github.com/go-playground/validator/v10"
)

type deployBody struct {
	Template    json.RawMessage `json:"template" validate:"required,json_object"`
	PullRequest int             `json:"pull_request,omitempty" validate:"min=0,max=100000"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/deploy", strings.NewReader(body))
}

func TestParseJSON_KeepsRawTemplateBytes(t *testing.T) {
	got, err := ParseJSON[deployBody](post(`{"template":{"b":1,"a":2},"pull_request":7}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if string(got.Template) != `{"b":1,"a":2}` || got.PullRequest != 7 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseJSON_DecodeFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		opts JSONOptions
		want string
	}{
		{"empty", ``, JSONOptions{}, "empty body"},
		{"broken", `{`, JSONOptions{}, "invalid JSON"},
		{"unknown field", `{"template":{},"extra":1}`, JSONOptions{DisallowUnknown: true}, "invalid JSON"},
		{"too large", `{"template":{"pad":"xxxxxxxxxxxxxxxx"}}`, JSONOptions{MaxBytes: 8}, "exceeds 8 bytes"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseJSON[deployBody](post(c.body), c.opts)
			if perr.CodeOf(err) != perr.ErrorCodeJSON || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("err = %v (code %s)", err, perr.CodeOf(err))
			}
		})
	}
}

func TestParseJSON_LooseOptionsAcceptExtras(t *testing.T) {
	got, err := ParseJSON[deployBody](post(`{"template":{},"parameters":{"x":1}}`), JSONOptions{MaxBytes: 1 << 10})
	if err != nil || string(got.Template) != `{}` {
		t.Fatalf("got %+v err %v", got, err)
	}
}

func TestParseJSON_EmptyBodyRules(t *testing.T) {
	get := httptest.NewRequest(http.MethodGet, "/runs", http.NoBody)
	if _, err := ParseJSON[deployBody](get); err != nil {
		t.Fatalf("GET with no body should pass: %v", err)
	}
	type note struct {
		Note string `json:"note"`
	}
	got, err := ParseJSON[note](post(``), JSONOptions{AllowEmptyBody: true, MaxBytes: 8})
	if err != nil || got != (note{}) {
		t.Fatalf("allowed empty body: %+v %v", got, err)
	}
}

func TestParseJSON_TrailingData(t *testing.T) {
	orig := jsonMore
	jsonMore = func(*json.Decoder) bool { return true }
	defer func() { jsonMore = orig }()

	_, err := ParseJSON[deployBody](post(`{"template":{}}`))
	if perr.CodeOf(err) != perr.ErrorCodeJSON || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseJSON_ValidationCarriesField(t *testing.T) {
	cases := []struct {
		body, field, msg string
	}{
		{`{"template":[1]}`, "template", "template must be a JSON object"},
		{`{"template":{},"pull_request":100001}`, "pull_request", "pull_request must be at most 100000"},
		{`{"template":{},"pull_request":-1}`, "pull_request", "pull_request must be at least 0"},
	}
	for _, c := range cases {
		_, err := ParseJSON[deployBody](post(c.body))
		e, ok := perr.As(err)
		if !ok || e.Code() != perr.ErrorCodeValidation || e.Field() != c.field || perr.Message(err) != c.msg {
			t.Fatalf("%s: err = %v field = %v", c.body, err, e)
		}
	}
}

func TestParseJSON_NonStructIsAJSONError(t *testing.T) {
	_, err := ParseJSON[int](post(`5`))
	if perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("err = %v", err)
	}
}

func TestJSONName(t *testing.T) {
	type s struct {
		Tagged int `json:"tagged,omitempty" validate:"min=1"`
		Hidden int `json:"-" validate:"min=1"`
		Plain  int `validate:"min=1"`
	}
	var verrs validator.ValidationErrors
	if !errors.As(Get().Validator.Struct(s{}), &verrs) || len(verrs) != 3 {
		t.Fatalf("expected three field errors, got %v", verrs)
	}
	for i, want := range []string{"tagged", "Hidden", "Plain"} {
		if verrs[i].Field() != want {
			t.Fatalf("field %d = %q, want %q", i, verrs[i].Field(), want)
		}
	}
}

func TestIsJSONObject_Kinds(t *testing.T) {
	type asString struct {
		Doc string `validate:"json_object"`
	}
	type wrongKind struct {
		N int `validate:"json_object"`
	}
	type ints struct {
		B []int `validate:"json_object"`
	}
	if err := Get().Validator.Struct(asString{Doc: ` {"a":1} `}); err != nil {
		t.Fatalf("string form should validate: %v", err)
	}
	for _, v := range []any{asString{Doc: `null`}, wrongKind{N: 1}, ints{B: []int{123}}} {
		if err := Get().Validator.Struct(v); err == nil {
			t.Fatalf("%T should fail json_object", v)
		}
	}
}

func TestFieldAndMessage_ForeignError(t *testing.T) {
	field, msg := fieldAndMessage(errors.New("boom"))
	if field != "" || msg != "boom" {
		t.Fatalf("got %q %q", field, msg)
	}
}
