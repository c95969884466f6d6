// Package artifact holds the input handling shared by the artifact
// generators: loading input documents and validating them.
package artifact

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/panbanda/revamp/pkg/config"
)

// ErrInvalidInput is matched by every InputError.
var ErrInvalidInput = errors.New("invalid artifact input")

// InputError lists the problems found in a generator input.
type InputError struct {
	Artifact string
	Problems []string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s input: %s", e.Artifact, strings.Join(e.Problems, "; "))
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks v against its validate struct tags.
func Validate(artifact string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &InputError{Artifact: artifact, Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		switch fe.Tag() {
		case "required":
			problems = append(problems, field+" is required")
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value()))
		case "url", "http_url":
			problems = append(problems, fmt.Sprintf("%s must be a URL, got %q", field, fe.Value()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return &InputError{Artifact: artifact, Problems: problems}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// LoadInput decodes a toml, yaml or json input document into v.
func LoadInput(path string, v any) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), config.ParserFor(path)); err != nil {
		return fmt.Errorf("load input %s: %w", path, err)
	}
	if err := k.UnmarshalWithConf("", v, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return fmt.Errorf("decode input %s: %w", path, err)
	}
	return nil
}
