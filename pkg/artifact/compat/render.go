package compat

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"
)

// Lang selects the adapter skeleton language.
type Lang string

const (
	LangTypeScript Lang = "ts"
	LangGo         Lang = "go"
)

type renderField struct {
	Source    string
	Target    string
	Direct    bool
	Nullable  bool
	Default   string
	Transform string
	Func      string
}

type renderView struct {
	Name   string
	Type   string
	Fields []renderField
}

var funcs = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

var tsTemplate = template.Must(template.New("ts").Funcs(funcs).Parse(`// {{.Name}} compatibility adapter.
// Generated by revamp; transforms marked TODO must be implemented.

export type Legacy{{.Type}} = Record<string, unknown>;
export type Modern{{.Type}} = Record<string, unknown>;

export function toModern{{.Type}}(source: Legacy{{.Type}}): Modern{{.Type}} {
  return {
{{- range .Fields}}
    {{quote .Target}}: {{if .Direct}}source[{{quote .Source}}]{{if .Nullable}} ?? {{.Default}}{{end}}{{else}}{{.Func}}(source[{{quote .Source}}]){{end}},
{{- end}}
  };
}

export function toLegacy{{.Type}}(target: Modern{{.Type}}): Legacy{{.Type}} {
  return {
{{- range .Fields}}
    {{quote .Source}}: {{if .Direct}}target[{{quote .Target}}]{{else}}{{.Func}}Inverse(target[{{quote .Target}}]){{end}},
{{- end}}
  };
}
{{range .Fields}}{{if not .Direct}}
// TODO: implement {{.Transform}} and its inverse.
declare function {{.Func}}(value: unknown): unknown;
declare function {{.Func}}Inverse(value: unknown): unknown;
{{end}}{{end}}`))

var goTemplate = template.Must(template.New("go").Funcs(funcs).Parse(`// Package compat adapts {{.Name}} records between the legacy and modern schemas.
package compat

// Legacy{{.Type}} is a record in the legacy schema.
type Legacy{{.Type}} map[string]any

// Modern{{.Type}} is a record in the modern schema.
type Modern{{.Type}} map[string]any

// ToModern{{.Type}} converts a legacy record.
func ToModern{{.Type}}(source Legacy{{.Type}}) (Modern{{.Type}}, error) {
	target := Modern{{.Type}}{}
{{- range .Fields}}
{{- if .Direct}}
	if v, ok := source[{{quote .Source}}]; ok && v != nil {
		target[{{quote .Target}}] = v
	}{{if .Nullable}} else {
		target[{{quote .Target}}] = {{.Default}}
	}{{end}}
{{- else}}
	if v, err := {{.Func}}(source[{{quote .Source}}]); err != nil {
		return nil, err
	} else {
		target[{{quote .Target}}] = v
	}
{{- end}}
{{- end}}
	return target, nil
}

// ToLegacy{{.Type}} converts a modern record back.
func ToLegacy{{.Type}}(target Modern{{.Type}}) (Legacy{{.Type}}, error) {
	source := Legacy{{.Type}}{}
{{- range .Fields}}
{{- if .Direct}}
	source[{{quote .Source}}] = target[{{quote .Target}}]
{{- else}}
	if v, err := {{.Func}}Inverse(target[{{quote .Target}}]); err != nil {
		return nil, err
	} else {
		source[{{quote .Source}}] = v
	}
{{- end}}
{{- end}}
	return source, nil
}
`))

// Render emits an adapter skeleton for the layer.
func Render(l *Layer, lang Lang) (string, error) {
	var tmpl *template.Template
	switch lang {
	case LangTypeScript:
		tmpl = tsTemplate
	case LangGo:
		tmpl = goTemplate
	default:
		return "", fmt.Errorf("unsupported adapter language %q, want ts or go", lang)
	}

	view := renderView{Name: l.Name, Type: typeName(l.Name)}
	for _, m := range l.Mappings {
		f := renderField{
			Source:    m.Source,
			Target:    m.Target,
			Direct:    m.IsDirect(),
			Nullable:  m.Nullable,
			Transform: m.Transform,
			Func:      lowerCamel(m.Transform),
		}
		if lang == LangGo && m.Default == nil {
			f.Default = "nil"
		} else {
			f.Default = literal(m.Default)
		}
		view.Fields = append(view.Fields, f)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render %s adapter: %w", lang, err)
	}
	return buf.String(), nil
}

// typeName turns "user_account" into "UserAccount".
func typeName(name string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	if b.Len() == 0 {
		return "Record"
	}
	return b.String()
}

// lowerCamel turns "cents_to_decimal" into "centsToDecimal".
func lowerCamel(name string) string {
	if name == "" {
		return ""
	}
	runes := []rune(typeName(name))
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
