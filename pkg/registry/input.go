package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/nullvoyager/voyager/pkg/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// ValidationError reports tool arguments that do not satisfy the input schema.
// It wraps domain.ErrInvalidToolInput.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return domain.ErrInvalidToolInput.Error() + ": " + e.Message()
}

// Message is the human-readable part, without the sentinel prefix.
func (e *ValidationError) Message() string {
	return strings.Join(e.Fields, "; ")
}

func (e *ValidationError) Unwrap() error {
	return domain.ErrInvalidToolInput
}

// Decode converts raw JSON tool arguments into T and validates it.
// Arguments go through a generic map so that loosely typed values from the model
// (numbers as strings and the like) are coerced by mapstructure.
func Decode[T any](args json.RawMessage) (T, error) {
	var out T

	raw := map[string]any{}
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &raw); err != nil {
			return out, &ValidationError{Fields: []string{"arguments must be a JSON object"}}
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(raw); err != nil {
		return out, &ValidationError{Fields: []string{err.Error()}}
	}

	if err := validatorInstance().Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return out, &ValidationError{Fields: describe(verrs)}
		}
		return out, err
	}
	return out, nil
}

func describe(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		var m string
		switch fe.Tag() {
		case "required":
			m = "is required"
		case "len":
			m = fmt.Sprintf("must be exactly %s characters", fe.Param())
		case "alpha":
			m = "must contain letters only"
		case "datetime":
			m = "must be a date in YYYY-MM-DD format"
		case "gte":
			m = "must be at least " + fe.Param()
		case "min":
			m = "must be at least " + fe.Param()
		case "oneof":
			m = "must be one of " + fe.Param()
		default:
			m = "failed " + fe.Tag() + " check"
		}
		msgs = append(msgs, fe.Field()+" "+m)
	}
	return msgs
}

// Schema reflects the JSON Schema of T's fields as a plain map, suitable for
// model tool definitions and MCP.
func Schema[T any]() map[string]any {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: false,
	}
	s := r.Reflect(new(T))

	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("registry: schema for %T: %v", *new(T), err))
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		panic(fmt.Sprintf("registry: schema for %T: %v", *new(T), err))
	}
	delete(m, "$schema")
	delete(m, "$id")
	return m
}
