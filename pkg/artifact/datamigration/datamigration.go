// Package datamigration generates expand/backfill/contract SQL scripts for
// moving a table to a new schema. Scripts are text only and never applied.
package datamigration

import (
	"fmt"
	"strings"
	"time"

	"github.com/panbanda/revamp/pkg/artifact"
	"github.com/panbanda/revamp/pkg/config"
)

// Column maps a source column to a target column.
type Column struct {
	Source     string `json:"source" validate:"required"`
	Target     string `json:"target" validate:"required"`
	Type       string `json:"type" validate:"required"`
	Nullable   bool   `json:"nullable,omitempty"`
	Default    string `json:"default,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// ForeignKey is a reference from a target column to another table.
type ForeignKey struct {
	Column           string `json:"column" validate:"required"`
	References       string `json:"references" validate:"required"`
	ReferencesColumn string `json:"references_column,omitempty"`
}

// Input is the generator input.
type Input struct {
	Name        string       `json:"name" validate:"required"`
	SourceTable string       `json:"source_table" validate:"required"`
	TargetTable string       `json:"target_table" validate:"required"`
	PrimaryKey  string       `json:"primary_key,omitempty"`
	Columns     []Column     `json:"columns" validate:"required,min=1,dive"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty" validate:"dive"`
	Indexes     []string     `json:"indexes,omitempty"`
	BatchSize   int          `json:"batch_size,omitempty" validate:"gte=0"`
}

// Duration is an estimated range in minutes.
type Duration struct {
	MinMinutes int `json:"min_minutes"`
	MaxMinutes int `json:"max_minutes"`
}

// Step is one ordered migration step.
type Step struct {
	Order       int      `json:"order"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	RollbackSQL string   `json:"rollback_sql,omitempty"`
	Reversible  bool     `json:"reversible"`
	Duration    Duration `json:"duration"`
}

// Query is a post-migration validation query.
type Query struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
	Expect      string `json:"expect"`
}

// Script is a generated data migration.
type Script struct {
	Name              string    `json:"name"`
	GeneratedAt       time.Time `json:"generated_at"`
	SourceTable       string    `json:"source_table"`
	TargetTable       string    `json:"target_table"`
	BatchSize         int       `json:"batch_size"`
	Steps             []Step    `json:"steps"`
	Rollback          []string  `json:"rollback"`
	ValidationQueries []Query   `json:"validation_queries"`
}

// Generator builds scripts with config defaults.
type Generator struct {
	batchSize int
}

// New returns a generator using the configured default batch size.
func New(cfg config.MigrationConfig) *Generator {
	bs := cfg.BatchSize
	if bs <= 0 {
		bs = config.DefaultConfig().Migration.BatchSize
	}
	return &Generator{batchSize: bs}
}

// Generate validates the input and builds the eight-step script.
func (g *Generator) Generate(in Input) (*Script, error) {
	if err := artifact.Validate("data migration", in); err != nil {
		return nil, err
	}
	if in.PrimaryKey == "" {
		in.PrimaryKey = "id"
	}
	if in.BatchSize == 0 {
		in.BatchSize = g.batchSize
	}

	s := &Script{
		Name:        in.Name,
		GeneratedAt: time.Now().UTC(),
		SourceTable: in.SourceTable,
		TargetTable: in.TargetTable,
		BatchSize:   in.BatchSize,
	}

	builders := []func(Input) Step{
		backupStep,
		createSchemaStep,
		addColumnsStep,
		backfillStep,
		validateStep,
		indexStep,
		constraintStep,
		verifyStep,
	}
	for i, b := range builders {
		st := b(in)
		st.Order = i + 1
		s.Steps = append(s.Steps, st)
	}

	for i := len(s.Steps) - 1; i >= 0; i-- {
		st := s.Steps[i]
		if st.Reversible && st.RollbackSQL != "" {
			s.Rollback = append(s.Rollback, st.RollbackSQL)
		}
	}
	s.ValidationQueries = validationQueries(in)
	return s, nil
}

func backupTable(in Input) string {
	return in.SourceTable + "_backup"
}

func backupStep(in Input) Step {
	return Step{
		Name:        "backup",
		Description: fmt.Sprintf("Snapshot %s before any change", in.SourceTable),
		SQL:         fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s;", backupTable(in), in.SourceTable),
		Reversible:  true,
		Duration:    Duration{MinMinutes: 5, MaxMinutes: 30},
	}
}

func createSchemaStep(in Input) Step {
	return Step{
		Name:        "create_target_schema",
		Description: fmt.Sprintf("Create %s with its primary key", in.TargetTable),
		SQL:         fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s BIGINT PRIMARY KEY\n);", in.TargetTable, in.PrimaryKey),
		RollbackSQL: fmt.Sprintf("DROP TABLE IF EXISTS %s;", in.TargetTable),
		Reversible:  true,
		Duration:    Duration{MinMinutes: 1, MaxMinutes: 5},
	}
}

func addColumnsStep(in Input) Step {
	var up, down []string
	for _, c := range in.Columns {
		if c.Target == in.PrimaryKey {
			continue
		}
		def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", in.TargetTable, c.Target, c.Type)
		if c.Default != "" {
			def += " DEFAULT " + c.Default
		}
		up = append(up, def+";")
		down = append(down, fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s;", in.TargetTable, c.Target))
	}
	if len(up) == 0 {
		up = append(up, "-- no columns beyond the primary key")
	}
	return Step{
		Name:        "add_columns",
		Description: "Expand the target schema; new columns stay nullable until backfilled",
		SQL:         strings.Join(up, "\n"),
		RollbackSQL: strings.Join(reverse(down), "\n"),
		Reversible:  true,
		Duration:    Duration{MinMinutes: 1, MaxMinutes: 10},
	}
}

func backfillStep(in Input) Step {
	targets := []string{in.PrimaryKey}
	exprs := []string{"s." + in.PrimaryKey}
	var updates []string
	for _, c := range in.Columns {
		if c.Target == in.PrimaryKey {
			continue
		}
		targets = append(targets, c.Target)
		exprs = append(exprs, sourceExpr(c))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.Target, c.Target))
	}

	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	sql := fmt.Sprintf(`-- repeat until no rows are inserted; :last_id starts at 0
INSERT INTO %s (%s)
SELECT %s
FROM %s s
WHERE s.%s > :last_id
ORDER BY s.%s
LIMIT %d
ON CONFLICT (%s) %s;`,
		in.TargetTable, strings.Join(targets, ", "),
		strings.Join(exprs, ", "),
		in.SourceTable,
		in.PrimaryKey, in.PrimaryKey,
		in.BatchSize,
		in.PrimaryKey, conflict)

	return Step{
		Name:        "backfill",
		Description: fmt.Sprintf("Copy rows in batches of %d keyed on %s", in.BatchSize, in.PrimaryKey),
		SQL:         sql,
		Reversible:  false,
		Duration:    Duration{MinMinutes: 30, MaxMinutes: 240},
	}
}

func sourceExpr(c Column) string {
	expr := "s." + c.Source
	if c.Expression != "" {
		expr = strings.ReplaceAll(c.Expression, "{source}", "s."+c.Source)
	}
	if c.Default != "" && c.Nullable {
		expr = fmt.Sprintf("COALESCE(%s, %s)", expr, c.Default)
	}
	return expr
}

func validateStep(in Input) Step {
	return Step{
		Name:        "validate_integrity",
		Description: "Compare row counts before building constraints",
		SQL: fmt.Sprintf("SELECT (SELECT COUNT(*) FROM %s) AS source_rows, (SELECT COUNT(*) FROM %s) AS target_rows;",
			in.SourceTable, in.TargetTable),
		Reversible: true,
		Duration:   Duration{MinMinutes: 5, MaxMinutes: 20},
	}
}

func indexName(in Input, col string) string {
	return fmt.Sprintf("idx_%s_%s", in.TargetTable, col)
}

func indexStep(in Input) Step {
	var up, down []string
	for _, col := range in.Indexes {
		up = append(up, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", indexName(in, col), in.TargetTable, col))
		down = append(down, fmt.Sprintf("DROP INDEX IF EXISTS %s;", indexName(in, col)))
	}
	if len(up) == 0 {
		up = append(up, "-- no secondary indexes requested")
	}
	return Step{
		Name:        "rebuild_indexes",
		Description: "Create secondary indexes after the bulk load",
		SQL:         strings.Join(up, "\n"),
		RollbackSQL: strings.Join(reverse(down), "\n"),
		Reversible:  true,
		Duration:    Duration{MinMinutes: 5, MaxMinutes: 60},
	}
}

func constraintName(in Input, col string) string {
	return fmt.Sprintf("fk_%s_%s", in.TargetTable, col)
}

func constraintStep(in Input) Step {
	var up, down []string
	for _, c := range in.Columns {
		if !c.Nullable && c.Target != in.PrimaryKey {
			up = append(up, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", in.TargetTable, c.Target))
			down = append(down, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", in.TargetTable, c.Target))
		}
	}
	for _, fk := range in.ForeignKeys {
		ref := fk.ReferencesColumn
		if ref == "" {
			ref = "id"
		}
		name := constraintName(in, fk.Column)
		up = append(up, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s);",
			in.TargetTable, name, fk.Column, fk.References, ref))
		down = append(down, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", in.TargetTable, name))
	}
	if len(up) == 0 {
		up = append(up, "-- no constraints requested")
	}
	return Step{
		Name:        "add_constraints",
		Description: "Contract: enforce NOT NULL and foreign keys",
		SQL:         strings.Join(up, "\n"),
		RollbackSQL: strings.Join(reverse(down), "\n"),
		Reversible:  true,
		Duration:    Duration{MinMinutes: 5, MaxMinutes: 30},
	}
}

func verifyStep(in Input) Step {
	return Step{
		Name:        "final_verification",
		Description: "Run the validation queries and sign off",
		SQL:         fmt.Sprintf("ANALYZE %s;", in.TargetTable),
		Reversible:  true,
		Duration:    Duration{MinMinutes: 10, MaxMinutes: 30},
	}
}

func validationQueries(in Input) []Query {
	pk := in.PrimaryKey
	cols := make([]string, 0, len(in.Columns))
	var notNull []string
	for _, c := range in.Columns {
		cols = append(cols, c.Target)
		if !c.Nullable {
			notNull = append(notNull, c.Target+" IS NULL")
		}
	}
	nullCheck := "SELECT 0 AS null_violations;"
	if len(notNull) > 0 {
		nullCheck = fmt.Sprintf("SELECT COUNT(*) AS null_violations FROM %s WHERE %s;", in.TargetTable, strings.Join(notNull, " OR "))
	}

	fkCheck := "SELECT 0 AS orphaned_rows;"
	if len(in.ForeignKeys) > 0 {
		var parts []string
		for _, fk := range in.ForeignKeys {
			ref := fk.ReferencesColumn
			if ref == "" {
				ref = "id"
			}
			parts = append(parts, fmt.Sprintf(
				"SELECT COUNT(*) FROM %s t LEFT JOIN %s r ON t.%s = r.%s WHERE t.%s IS NOT NULL AND r.%s IS NULL",
				in.TargetTable, fk.References, fk.Column, ref, fk.Column, ref))
		}
		fkCheck = "SELECT (" + strings.Join(parts, ") + (") + ") AS orphaned_rows;"
	}

	return []Query{
		{
			Name:        "row_count",
			Description: "Source and target row counts match",
			SQL:         fmt.Sprintf("SELECT (SELECT COUNT(*) FROM %s) - (SELECT COUNT(*) FROM %s) AS row_difference;", in.SourceTable, in.TargetTable),
			Expect:      "row_difference = 0",
		},
		{
			Name:        "checksum",
			Description: "Primary key checksums match",
			SQL: fmt.Sprintf("SELECT (SELECT SUM(%s) FROM %s) = (SELECT SUM(%s) FROM %s) AS checksum_match;",
				pk, in.SourceTable, pk, in.TargetTable),
			Expect: "checksum_match = true",
		},
		{
			Name:        "spot_sample",
			Description: "A random sample of target rows for manual comparison",
			SQL:         fmt.Sprintf("SELECT %s FROM %s ORDER BY random() LIMIT 100;", strings.Join(cols, ", "), in.TargetTable),
			Expect:      "values match the source rows with the same key",
		},
		{
			Name:        "null_check",
			Description: "Required columns contain no NULLs",
			SQL:         nullCheck,
			Expect:      "null_violations = 0",
		},
		{
			Name:        "fk_integrity",
			Description: "Every foreign key resolves",
			SQL:         fkCheck,
			Expect:      "orphaned_rows = 0",
		},
	}
}

func reverse(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}

// LoadInput reads generator input from a toml, yaml or json file.
func LoadInput(path string) (Input, error) {
	var in Input
	err := artifact.LoadInput(path, &in)
	return in, err
}
