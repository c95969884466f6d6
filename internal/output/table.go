package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table is a Renderable table. Data, when set, is what document formats
// serialize instead of the rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Footer  []string
	Data    any
}

// RenderData implements Renderable.
func (t *Table) RenderData() any {
	if t.Data != nil {
		return t.Data
	}
	rows := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		m := make(map[string]string, len(t.Headers))
		for j, h := range t.Headers {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		rows[i] = m
	}
	return rows
}

// RenderText implements Renderable.
func (t *Table) RenderText(w io.Writer, colored bool) error {
	heading(w, t.Title, "-", colored)
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
			Footer: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignLeft}},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
	table.Header(t.Headers)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if len(t.Footer) > 0 {
		cells := make([]any, len(t.Footer))
		for i, c := range t.Footer {
			cells[i] = c
		}
		table.Footer(cells...)
	}
	return table.Render()
}

// RenderMarkdown implements Renderable.
func (t *Table) RenderMarkdown(w io.Writer) error {
	if t.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", t.Title)
	}
	if len(t.Rows) == 0 {
		fmt.Fprint(w, "_None._\n\n")
		return nil
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(t.Headers, " | "))
	seps := make([]string, len(t.Headers))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))
	for _, row := range t.Rows {
		fmt.Fprintf(w, "| %s |\n", strings.Join(escapeCells(row), " | "))
	}
	if len(t.Footer) > 0 {
		fmt.Fprintf(w, "| %s |\n", strings.Join(t.Footer, " | "))
	}
	fmt.Fprintln(w)
	return nil
}

func escapeCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// Section is a Renderable block of text with nested sections.
type Section struct {
	Title    string
	Lines    []string
	Sections []Renderable
	Data     any
}

// RenderData implements Renderable.
func (s *Section) RenderData() any {
	if s.Data != nil {
		return s.Data
	}
	return map[string]any{"title": s.Title, "lines": s.Lines}
}

// RenderText implements Renderable.
func (s *Section) RenderText(w io.Writer, colored bool) error {
	heading(w, s.Title, "-", colored)
	for _, l := range s.Lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	for _, sub := range s.Sections {
		fmt.Fprintln(w)
		if err := sub.RenderText(w, colored); err != nil {
			return err
		}
	}
	return nil
}

// RenderMarkdown implements Renderable.
func (s *Section) RenderMarkdown(w io.Writer) error {
	if s.Title != "" {
		fmt.Fprintf(w, "## %s\n\n", s.Title)
	}
	for _, l := range s.Lines {
		fmt.Fprintf(w, "- %s\n", l)
	}
	if len(s.Lines) > 0 {
		fmt.Fprintln(w)
	}
	for _, sub := range s.Sections {
		if err := sub.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

// Document is a titled list of Renderables backed by a single value that
// document formats serialize.
type Document struct {
	Title string
	Parts []Renderable
	Data  any
}

// RenderData implements Renderable.
func (d *Document) RenderData() any {
	return d.Data
}

// RenderText implements Renderable.
func (d *Document) RenderText(w io.Writer, colored bool) error {
	if d.Title != "" {
		if colored {
			color.New(color.Bold, color.FgCyan).Fprintln(w, d.Title)
		} else {
			fmt.Fprintln(w, d.Title)
		}
		fmt.Fprintln(w, strings.Repeat("=", len(d.Title)))
		fmt.Fprintln(w)
	}
	for i, p := range d.Parts {
		if err := p.RenderText(w, colored); err != nil {
			return err
		}
		if i < len(d.Parts)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

// RenderMarkdown implements Renderable.
func (d *Document) RenderMarkdown(w io.Writer) error {
	if d.Title != "" {
		fmt.Fprintf(w, "# %s\n\n", d.Title)
	}
	for _, p := range d.Parts {
		if err := p.RenderMarkdown(w); err != nil {
			return err
		}
	}
	return nil
}

func heading(w io.Writer, title, underline string, colored bool) {
	if title == "" {
		return
	}
	if colored {
		color.New(color.Bold).Fprintln(w, title)
	} else {
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat(underline, len(title)))
}
