package migration

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

// Architecture is the deployment shape of a system.
type Architecture string

const (
	ArchMonolith        Architecture = "monolith"
	ArchModularMonolith Architecture = "modular-monolith"
	ArchMicroservices   Architecture = "microservices"
	ArchServerless      Architecture = "serverless"
)

// TechnologyProfile describes one side of a migration.
type TechnologyProfile struct {
	Language      string       `json:"language" yaml:"language" koanf:"language" validate:"required"`
	Runtime       string       `json:"runtime" yaml:"runtime" koanf:"runtime" validate:"required"`
	Framework     string       `json:"framework" yaml:"framework" koanf:"framework" validate:"required"`
	Database      string       `json:"database" yaml:"database" koanf:"database" validate:"required"`
	BuildSystem   string       `json:"build_system,omitempty" yaml:"build_system,omitempty" koanf:"build_system"`
	TestFramework string       `json:"test_framework,omitempty" yaml:"test_framework,omitempty" koanf:"test_framework"`
	Deployment    string       `json:"deployment,omitempty" yaml:"deployment,omitempty" koanf:"deployment"`
	Architecture  Architecture `json:"architecture" yaml:"architecture" koanf:"architecture" validate:"required,oneof=monolith modular-monolith microservices serverless"`
}

// String renders a compact label such as "javascript/express/mysql (monolith)".
func (p TechnologyProfile) String() string {
	return fmt.Sprintf("%s/%s/%s (%s)", p.Language, p.Framework, p.Database, p.Architecture)
}

// ErrInvalidProfile is matched by every ProfileError.
var ErrInvalidProfile = errors.New("invalid technology profile")

// ProfileError reports why a planner input was rejected.
type ProfileError struct {
	Profile  string
	Problems []string
}

func (e *ProfileError) Error() string {
	return fmt.Sprintf("invalid %s profile: %s", e.Profile, strings.Join(e.Problems, "; "))
}

func (e *ProfileError) Unwrap() error {
	return ErrInvalidProfile
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

// ValidateProfile checks the required fields of a profile. role names the
// profile in the error, e.g. "current" or "target".
func ValidateProfile(role string, p TechnologyProfile) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ProfileError{Profile: role, Problems: []string{err.Error()}}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fe.Field()+" is required")
		case "oneof":
			problems = append(problems, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return &ProfileError{Profile: role, Problems: problems}
}

// LoadProfile reads a profile from a toml, yaml or json file.
func LoadProfile(path string) (TechnologyProfile, error) {
	var p TechnologyProfile
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), config.ParserFor(path)); err != nil {
		return p, fmt.Errorf("load profile %s: %w", path, err)
	}
	if err := k.Unmarshal("", &p); err != nil {
		return p, fmt.Errorf("decode profile %s: %w", path, err)
	}
	p.Architecture = Architecture(strings.ToLower(string(p.Architecture)))
	return p, nil
}
