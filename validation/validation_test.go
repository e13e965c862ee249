package validation

import (
	"testing"

	"github.com/kbukum/servicekit/errors"
)

type identity struct {
	Name string   `mapstructure:"name" validate:"required"`
	ID   string   `mapstructure:"id"`
	Port int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Tags []string `mapstructure:"tags" validate:"dive,required"`
}

type withJSON struct {
	DisplayName string `json:"display_name" validate:"required"`
	NoTag       string `validate:"required"`
}

func TestValidate_Valid(t *testing.T) {
	if err := Validate(identity{Name: "api", Port: 8080, Tags: []string{"https"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Required(t *testing.T) {
	err := Validate(identity{})
	if err == nil {
		t.Fatal("expected error for missing name")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT AppError, got %v", err)
	}
	fields := FieldErrors(err)
	if len(fields) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(fields))
	}
	if fields[0].Field != "name" || fields[0].Tag != "required" || fields[0].Message != "is required" {
		t.Errorf("unexpected field error: %+v", fields[0])
	}
}

func TestValidate_Table(t *testing.T) {
	tests := []struct {
		name      string
		in        any
		wantField string
		wantTag   string
	}{
		{"port too high", identity{Name: "a", Port: 70000}, "port", "max"},
		{"empty tag", identity{Name: "a", Tags: []string{""}}, "tags[0]", "required"},
		{"json tag name", withJSON{NoTag: "x"}, "display_name", "required"},
		{"snake case fallback", withJSON{DisplayName: "x"}, "no_tag", "required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fields := FieldErrors(Validate(tc.in))
			if len(fields) != 1 {
				t.Fatalf("expected 1 field error, got %v", fields)
			}
			if fields[0].Field != tc.wantField || fields[0].Tag != tc.wantTag {
				t.Errorf("got %+v, want field=%s tag=%s", fields[0], tc.wantField, tc.wantTag)
			}
		})
	}
}

func TestFieldErrors_NonValidationError(t *testing.T) {
	if FieldErrors(nil) != nil {
		t.Error("expected nil for nil error")
	}
	if FieldErrors(errors.MissingConfig("x")) != nil {
		t.Error("expected nil for error without field details")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ServicePort": "service_port",
		"Name":        "name",
		"checkPath":   "check_path",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
