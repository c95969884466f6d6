// Package compat generates compatibility layers that translate records
// between a legacy and a modern schema.
package compat

import (
	"fmt"
	"time"

	"github.com/panbanda/revamp/pkg/artifact"
)

// Mapping relates one legacy field to one modern field.
type Mapping struct {
	Source    string `json:"source" validate:"required"`
	Target    string `json:"target" validate:"required"`
	Transform string `json:"transform,omitempty"`
	Nullable  bool   `json:"nullable,omitempty"`
	Default   any    `json:"default,omitempty"`
}

// IsDirect reports whether the mapping copies values unchanged.
func (m Mapping) IsDirect() bool {
	return m.Transform == "" || m.Transform == Direct
}

// Input is the generator input document.
type Input struct {
	Name     string    `json:"name" validate:"required"`
	Mappings []Mapping `json:"mappings" validate:"required,min=1,dive"`
}

// Layer is a generated compatibility layer.
type Layer struct {
	Name         string    `json:"name"`
	GeneratedAt  time.Time `json:"generated_at"`
	Mappings     []Mapping `json:"mappings"`
	ForwardLines []string  `json:"forward"`
	ReverseLines []string  `json:"reverse"`
}

// Build validates the mappings and describes them as forward and reverse
// assignment lines. Unknown transform names are allowed here.
func Build(name string, mappings []Mapping) (*Layer, error) {
	if err := artifact.Validate("compatibility layer", Input{Name: name, Mappings: mappings}); err != nil {
		return nil, err
	}

	l := &Layer{
		Name:         name,
		GeneratedAt:  time.Now().UTC(),
		Mappings:     append([]Mapping(nil), mappings...),
		ForwardLines: make([]string, 0, len(mappings)),
		ReverseLines: make([]string, 0, len(mappings)),
	}
	for _, m := range mappings {
		l.ForwardLines = append(l.ForwardLines, forwardLine(m))
		l.ReverseLines = append(l.ReverseLines, reverseLine(m))
	}
	return l, nil
}

func forwardLine(m Mapping) string {
	if m.IsDirect() {
		if m.Nullable {
			return fmt.Sprintf("target.%s = source.%s ?? %s", m.Target, m.Source, literal(m.Default))
		}
		return fmt.Sprintf("target.%s = source.%s", m.Target, m.Source)
	}
	return fmt.Sprintf("target.%s = %s(source.%s)", m.Target, m.Transform, m.Source)
}

func reverseLine(m Mapping) string {
	if m.IsDirect() {
		return fmt.Sprintf("source.%s = target.%s", m.Source, m.Target)
	}
	return fmt.Sprintf("source.%s = %s_inverse(target.%s)", m.Source, m.Transform, m.Target)
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Forward converts a legacy record to the modern shape. Fields absent from
// the record are skipped unless the mapping is nullable, in which case the
// default is written.
func (l *Layer) Forward(record map[string]any) (map[string]any, error) {
	return l.apply(record, true)
}

// Reverse converts a modern record back to the legacy shape.
func (l *Layer) Reverse(record map[string]any) (map[string]any, error) {
	return l.apply(record, false)
}

func (l *Layer) apply(record map[string]any, forward bool) (map[string]any, error) {
	if err := l.Check(); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(l.Mappings))
	for _, m := range l.Mappings {
		from, to := m.Source, m.Target
		if !forward {
			from, to = m.Target, m.Source
		}

		v, ok := record[from]
		if !ok || v == nil {
			if forward && m.Nullable {
				out[to] = m.Default
			} else if ok {
				out[to] = nil
			}
			continue
		}

		t, _ := lookup(m.Transform)
		fn := t.Forward
		if !forward {
			fn = t.Inverse
		}
		converted, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("%s %s -> %s: %w", transformLabel(m), from, to, err)
		}
		out[to] = converted
	}
	return out, nil
}

// Check reports the first mapping whose transform is not executable.
func (l *Layer) Check() error {
	for _, m := range l.Mappings {
		if _, ok := lookup(m.Transform); !ok {
			return fmt.Errorf("%w %q on %s", ErrUnknownTransform, m.Transform, m.Source)
		}
	}
	return nil
}

func transformLabel(m Mapping) string {
	if m.IsDirect() {
		return Direct
	}
	return m.Transform
}

// LoadInput reads generator input from a toml, yaml or json file.
func LoadInput(path string) (Input, error) {
	var in Input
	err := artifact.LoadInput(path, &in)
	return in, err
}
