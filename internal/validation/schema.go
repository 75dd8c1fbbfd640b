// Package validation checks decoded JSON request bodies against declarative
// rule tables before they reach a handler.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Kind int

const (
	String Kind = iota
	Number
	Integer
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Integer:
		return "integer"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Mode selects whether missing required fields are violations (Create) or
// only present fields are checked (Patch).
type Mode int

const (
	Create Mode = iota
	Patch
)

// Rule describes one body field. Tag holds validator bounds evaluated after
// the kind check, for example "min=1,max=5".
type Rule struct {
	Field    string
	Kind     Kind
	Required bool
	Tag      string
	Message  string
}

type Schema struct {
	Name  string
	Rules []Rule
}

type Violation struct {
	Field    string      `json:"field"`
	Value    interface{} `json:"value,omitempty"`
	Message  string      `json:"msg"`
	Location string      `json:"location"`
}

var validate = validator.New()

// Validate reports at most one violation per rule, in rule order. Fields not
// named by the schema are ignored.
func (s Schema) Validate(body map[string]interface{}, mode Mode) []Violation {
	var violations []Violation

	if mode == Patch && !s.anyPresent(body) {
		return []Violation{{
			Message:  fmt.Sprintf("At least one %s field must be provided", s.Name),
			Location: "body",
		}}
	}

	for _, rule := range s.Rules {
		value, ok := body[rule.Field]
		if !ok || value == nil {
			if rule.Required && mode == Create {
				violations = append(violations, rule.violation(nil))
			}
			continue
		}

		normalized, ok := rule.Kind.coerce(value)
		if !ok {
			violations = append(violations, rule.violation(value))
			continue
		}

		if rule.Tag != "" {
			if err := validate.Var(normalized, rule.Tag); err != nil {
				violations = append(violations, rule.violation(value))
			}
		}
	}

	return violations
}

func (s Schema) anyPresent(body map[string]interface{}) bool {
	for _, rule := range s.Rules {
		if v, ok := body[rule.Field]; ok && v != nil {
			return true
		}
	}
	return false
}

func (r Rule) violation(value interface{}) Violation {
	msg := r.Message
	if msg == "" {
		msg = fmt.Sprintf("%s is required and must be a %s", r.Field, r.Kind)
	}
	return Violation{
		Field:    r.Field,
		Value:    value,
		Message:  msg,
		Location: "body",
	}
}

// coerce returns the value in the Go type the kind expects, or false when
// the JSON value has the wrong shape. Integers given as json.Number must be
// integer literals.
func (k Kind) coerce(value interface{}) (interface{}, bool) {
	switch k {
	case String:
		s, ok := value.(string)
		return s, ok
	case Number, Integer:
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case json.Number:
			if k == Integer && strings.ContainsAny(v.String(), ".eE") {
				return nil, false
			}
			parsed, err := v.Float64()
			if err != nil {
				return nil, false
			}
			f = parsed
		default:
			return nil, false
		}
		if k == Integer && f != math.Trunc(f) {
			return nil, false
		}
		return f, true
	}
	return nil, false
}
