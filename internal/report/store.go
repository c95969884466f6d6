// Package report persists generated documents to the output directory.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/panbanda/revamp/internal/output"
)

// Kind names a persisted document type.
type Kind string

const (
	KindHealthReport       Kind = "health-report"
	KindMigrationPlan      Kind = "migration-plan"
	KindStranglerConfig    Kind = "strangler-config"
	KindCompatibilityLayer Kind = "compatibility-layer"
	KindDataMigration      Kind = "data-migration"
	KindTestBackfillPlan   Kind = "test-backfill-plan"
)

// timestampLayout is YYYYMMDD-HHMMSS.
const timestampLayout = "20060102-150405"

// Store writes documents as timestamped files.
type Store struct {
	dir    string
	format output.Format
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store writing to dir in a document format. Human
// formats are stored as JSON.
func NewStore(dir string, format output.Format, opts ...Option) *Store {
	if !format.IsDocument() {
		format = output.FormatJSON
	}
	s := &Store{dir: dir, format: format, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes doc as <dir>/<kind>-<YYYYMMDD-HHMMSS>.<ext> and returns the
// path.
func (s *Store) Save(kind Kind, doc any) (string, error) {
	data, err := output.Marshal(s.format, doc)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", kind, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, FileName(kind, s.now(), s.format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", kind, err)
	}
	return path, nil
}

// FileName builds the file name for a document saved at t.
func FileName(kind Kind, t time.Time, format output.Format) string {
	return fmt.Sprintf("%s-%s.%s", kind, t.UTC().Format(timestampLayout), format.Ext())
}

// Load decodes a saved JSON or YAML document into v. YAML keys follow the
// json field names, matching what Save writes.
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if data, err = json.Marshal(generic); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("load %s: only json and yaml documents can be read back", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
