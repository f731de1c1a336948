package command

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DecodeError describes a payload that matches no command shape.
type DecodeError struct {
	Message string
}

func (e *DecodeError) Error() string {
	return e.Message
}

// Pointer fields distinguish a missing key from an empty value.
type createPayload struct {
	Title *string `field:"title"`
}

type targetPayload struct {
	ID *string `field:"id" validate:"required,uuid"`
}

type checkedPayload struct {
	ID      *string `field:"id" validate:"required,uuid"`
	Checked *string `field:"checked" validate:"required,oneof=true false"`
}

type titlePayload struct {
	ID    *string `field:"id" validate:"required,uuid"`
	Title *string `field:"title" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}

// Decode turns a flat key/value payload into exactly one command. Keys that
// the selected command does not use are ignored.
func Decode(values map[string]string) (Command, error) {
	name, ok := values["command"]
	if !ok || name == "" {
		return nil, &DecodeError{Message: "command: is required"}
	}

	switch Name(name) {
	case NameCreate:
		p := createPayload{Title: lookup(values, "title")}
		return Create{Title: deref(p.Title)}, nil
	case NameDelete:
		p := targetPayload{ID: lookup(values, "id")}
		if err := check(p); err != nil {
			return nil, err
		}
		return Delete{ID: *p.ID}, nil
	case NameSetPinned:
		p := targetPayload{ID: lookup(values, "id")}
		if err := check(p); err != nil {
			return nil, err
		}
		return SetPinned{ID: *p.ID}, nil
	case NameSetChecked:
		p := checkedPayload{ID: lookup(values, "id"), Checked: lookup(values, "checked")}
		if err := check(p); err != nil {
			return nil, err
		}
		return SetChecked{ID: *p.ID, Checked: *p.Checked == "true"}, nil
	case NameSetTitle:
		p := titlePayload{ID: lookup(values, "id"), Title: lookup(values, "title")}
		if err := check(p); err != nil {
			return nil, err
		}
		return SetTitle{ID: *p.ID, Title: *p.Title}, nil
	case NameDeleteAccount:
		return DeleteAccount{}, nil
	default:
		return nil, &DecodeError{Message: fmt.Sprintf("command: unknown command %q", name)}
	}
}

func check(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &DecodeError{Message: err.Error()}
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+": "+describe(fe))
	}
	return &DecodeError{Message: strings.Join(msgs, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid uuid"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func lookup(values map[string]string, key string) *string {
	v, ok := values[key]
	if !ok {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
