// Package form binds submitted values to declarative field schemas and
// collects field-level validation errors.
package form

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind selects how a field is rendered and validated.
type Kind int

const (
	Text Kind = iota
	Choice
	MultiChoice
)

// Messages shown to users.
const (
	MsgRequired      = "This field is required."
	MsgInvalidChoice = "Select a valid choice. That choice is not one of the available choices."
)

// Option is one entry of a choice field.
type Option struct {
	Value string
	Label string
}

// Field describes one input.
type Field struct {
	Name      string
	Label     string
	Kind      Kind
	Required  bool
	MaxLength int
	Options   []Option
	// Secret values are bound untrimmed and never rendered back.
	Secret bool
}

func (f Field) hasOption(value string) bool {
	return slices.ContainsFunc(f.Options, func(o Option) bool { return o.Value == value })
}

// Schema is an ordered set of fields.
type Schema struct {
	Fields []Field
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Form is a schema bound to submitted (or initial) values.
type Form struct {
	Schema   Schema
	Values   url.Values
	Errors   map[string][]string
	NonField []string
	bound    bool
}

// New returns an unbound form showing initial values. Unbound forms are
// never valid.
func New(s Schema, initial url.Values) *Form {
	if initial == nil {
		initial = url.Values{}
	}
	return &Form{Schema: s, Values: initial, Errors: map[string][]string{}}
}

// Bind attaches submitted values and runs the per-field checks: required,
// maximum length and choice membership. Text values other than secrets
// are trimmed.
func Bind(s Schema, submitted url.Values) *Form {
	f := &Form{Schema: s, Values: url.Values{}, Errors: map[string][]string{}, bound: true}
	for _, field := range s.Fields {
		raw := submitted[field.Name]
		switch field.Kind {
		case MultiChoice:
			var picked []string
			for _, v := range raw {
				if v = strings.TrimSpace(v); v != "" && !slices.Contains(picked, v) {
					picked = append(picked, v)
				}
			}
			f.Values[field.Name] = picked
			f.checkMulti(field, picked)
		default:
			v := ""
			if len(raw) > 0 {
				v = raw[0]
			}
			if !field.Secret {
				v = strings.TrimSpace(v)
			}
			f.Values.Set(field.Name, v)
			f.checkSingle(field, v)
		}
	}
	return f
}

func (f *Form) checkSingle(field Field, v string) {
	if v == "" {
		if field.Required {
			f.AddError(field.Name, MsgRequired)
		}
		return
	}
	if n := utf8.RuneCountInString(v); field.MaxLength > 0 && n > field.MaxLength {
		f.AddError(field.Name, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", field.MaxLength, n))
	}
	if field.Kind == Choice && !field.hasOption(v) {
		f.AddError(field.Name, MsgInvalidChoice)
	}
}

func (f *Form) checkMulti(field Field, picked []string) {
	if len(picked) == 0 {
		if field.Required {
			f.AddError(field.Name, MsgRequired)
		}
		return
	}
	for _, v := range picked {
		if !field.hasOption(v) {
			f.AddError(field.Name, fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", v))
			return
		}
	}
}

// Check is a cross-field or store-backed validation step. It records
// problems on the form and returns an error only when it could not run.
type Check func(ctx context.Context, f *Form) error

// Validate runs checks for fields that passed the built-in checks and
// reports whether the form is valid.
func (f *Form) Validate(ctx context.Context, checks ...Check) (bool, error) {
	if !f.bound {
		return false, nil
	}
	for _, check := range checks {
		if err := check(ctx, f); err != nil {
			return false, err
		}
	}
	return f.Valid(), nil
}

// Unique flags field when taken reports the value as already used.
// label names the record, e.g. "Manufacturer".
func Unique(field, label string, taken func(ctx context.Context, value string) (bool, error)) Check {
	return func(ctx context.Context, f *Form) error {
		if len(f.Errors[field]) > 0 {
			return nil
		}
		v := f.Value(field)
		if v == "" {
			return nil
		}
		dup, err := taken(ctx, v)
		if err != nil {
			return err
		}
		if dup {
			fieldLabel := field
			if def, ok := f.Schema.Field(field); ok {
				fieldLabel = def.Label
			}
			f.AddError(field, fmt.Sprintf("%s with this %s already exists.", label, fieldLabel))
		}
		return nil
	}
}

// Bound reports whether the form holds submitted values.
func (f *Form) Bound() bool { return f.bound }

// Valid reports whether a bound form has no errors.
func (f *Form) Valid() bool {
	if !f.bound || len(f.NonField) > 0 {
		return false
	}
	for _, errs := range f.Errors {
		if len(errs) > 0 {
			return false
		}
	}
	return true
}

func (f *Form) AddError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

// AddNonFieldError records a problem with the submission as a whole.
func (f *Form) AddNonFieldError(msg string) {
	f.NonField = append(f.NonField, msg)
}

// Value returns the first value of a field.
func (f *Form) Value(name string) string { return f.Values.Get(name) }

// Int returns a field as an integer, or 0.
func (f *Form) Int(name string) int {
	n, _ := strconv.Atoi(f.Value(name))
	return n
}

// Ints returns every value of a field that parses as an integer.
func (f *Form) Ints(name string) []int {
	var out []int
	for _, v := range f.Values[name] {
		if n, err := strconv.Atoi(v); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// Selected reports whether value is among the field's current values.
func (f *Form) Selected(name, value string) bool {
	return slices.Contains(f.Values[name], value)
}
