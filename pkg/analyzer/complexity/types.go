package complexity

// Tier is a recommendation bucket from the refactoring catalog.
type Tier string

const (
	TierCritical  Tier = "critical"
	TierDecompose Tier = "decompose"
	TierSplit     Tier = "split"
	TierStabilize Tier = "stabilize"
	TierMonitor   Tier = "monitor"
)

// Recommendation is the catalog entry attached to a hotspot.
type Recommendation struct {
	Tier Tier   `json:"tier"`
	Text string `json:"text"`
}

// Hotspot is a file ranked by how risky it is to change.
type Hotspot struct {
	Path           string         `json:"path"`
	Language       string         `json:"language"`
	Cyclomatic     int            `json:"cyclomatic"`
	Cognitive      int            `json:"cognitive"`
	Lines          int            `json:"lines"`
	Coupling       int            `json:"coupling"`
	Churn          int            `json:"churn"`
	RiskScore      float64        `json:"risk_score"`
	Recommendation Recommendation `json:"recommendation"`
}

// Correlation ranks a file by churn times complexity.
type Correlation struct {
	Path       string  `json:"path"`
	Churn      int     `json:"churn"`
	Cyclomatic int     `json:"cyclomatic"`
	Score      float64 `json:"score"`
}

// Summary provides aggregate statistics.
type Summary struct {
	FilesAnalyzed int     `json:"files_analyzed"`
	AvgCyclomatic float64 `json:"avg_cyclomatic"`
	MaxCyclomatic int     `json:"max_cyclomatic"`
	P90Cyclomatic int     `json:"p90_cyclomatic"`
	Violations    int     `json:"violations"`
	CriticalFiles int     `json:"critical_files"`
}

// Analysis is the full complexity and churn result.
type Analysis struct {
	Hotspots     []Hotspot     `json:"hotspots"`
	Correlations []Correlation `json:"correlations"`
	Summary      Summary       `json:"summary"`
}

// Score returns the share of analyzed files under the violation threshold
// on a 0-100 scale. An empty analysis scores 100.
func (a *Analysis) Score() float64 {
	if a.Summary.FilesAnalyzed == 0 {
		return 100
	}
	return max(0, 100*(1-float64(a.Summary.Violations)/float64(a.Summary.FilesAnalyzed)))
}

// Above returns the hotspots whose cyclomatic complexity exceeds threshold.
func (a *Analysis) Above(threshold int) []Hotspot {
	var out []Hotspot
	for _, h := range a.Hotspots {
		if h.Cyclomatic > threshold {
			out = append(out, h)
		}
	}
	return out
}
