package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/panbanda/revamp/pkg/analyzer/complexity"
	"github.com/panbanda/revamp/pkg/artifact/backfill"
)

// HotspotRow is one complexity hotspot in a parquet export.
type HotspotRow struct {
	Path       string  `parquet:"path,snappy"`
	Language   string  `parquet:"language,snappy"`
	Cyclomatic int32   `parquet:"cyclomatic,snappy"`
	Cognitive  int32   `parquet:"cognitive,snappy"`
	Lines      int32   `parquet:"lines,snappy"`
	Coupling   int32   `parquet:"coupling,snappy"`
	Churn      int32   `parquet:"churn,snappy"`
	RiskScore  float64 `parquet:"risk_score,snappy"`
	Tier       string  `parquet:"tier,snappy"`
}

// BackfillRow is one backfill plan item in a parquet export.
type BackfillRow struct {
	Path       string  `parquet:"path,snappy"`
	Tier       string  `parquet:"tier,snappy"`
	Priority   float64 `parquet:"priority,snappy"`
	RiskScore  float64 `parquet:"risk_score,snappy"`
	Cyclomatic int32   `parquet:"cyclomatic,snappy"`
	Churn      int32   `parquet:"churn,snappy"`
	Coupling   int32   `parquet:"coupling,snappy"`
	TestTypes  string  `parquet:"test_types,snappy"`
	Approach   string  `parquet:"approach,snappy"`
}

// HotspotRows flattens hotspots for export.
func HotspotRows(hotspots []complexity.Hotspot) []HotspotRow {
	rows := make([]HotspotRow, len(hotspots))
	for i, h := range hotspots {
		rows[i] = HotspotRow{
			Path:       h.Path,
			Language:   h.Language,
			Cyclomatic: int32(h.Cyclomatic),
			Cognitive:  int32(h.Cognitive),
			Lines:      int32(h.Lines),
			Coupling:   int32(h.Coupling),
			Churn:      int32(h.Churn),
			RiskScore:  h.RiskScore,
			Tier:       string(h.Recommendation.Tier),
		}
	}
	return rows
}

// BackfillRows flattens a backfill plan for export. Test types are joined
// with commas.
func BackfillRows(p *backfill.Plan) []BackfillRow {
	rows := make([]BackfillRow, len(p.Items))
	for i, it := range p.Items {
		types := make([]string, len(it.TestTypes))
		for j, t := range it.TestTypes {
			types[j] = string(t)
		}
		rows[i] = BackfillRow{
			Path:       it.Path,
			Tier:       string(it.Tier),
			Priority:   it.Priority,
			RiskScore:  it.RiskScore,
			Cyclomatic: int32(it.Cyclomatic),
			Churn:      int32(it.Churn),
			Coupling:   int32(it.Coupling),
			TestTypes:  strings.Join(types, ","),
			Approach:   it.Approach,
		}
	}
	return rows
}

// WriteParquet writes rows to path using the schema inferred from T.
func WriteParquet[T any](rows []T, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
