package migration

// Level grades a probability or an impact.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Risk is an entry of the risk register.
type Risk struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Probability Level    `json:"probability"`
	Impact      Level    `json:"impact"`
	Mitigation  []string `json:"mitigation"`
}

const (
	riskParity      = "R1"
	riskSchedule    = "R2"
	riskPerformance = "R3"
	riskDataLoss    = "R4"
	riskSkills      = "R5"
)

// buildRisks returns the five risk archetypes. A low health score means
// less test coverage and more surprises, so parity and schedule become
// likely.
func buildRisks(lowHealth bool) []Risk {
	risks := []Risk{
		{
			ID:          riskParity,
			Title:       "Functional parity gaps",
			Description: "The new system misses behavior the legacy system implements implicitly.",
			Probability: LevelMedium,
			Impact:      LevelHigh,
			Mitigation: []string{
				"Characterization tests before migrating each module",
				"Shadow traffic comparison during rollout",
			},
		},
		{
			ID:          riskSchedule,
			Title:       "Schedule overrun",
			Description: "Hidden coupling and undocumented behavior extend each phase.",
			Probability: LevelMedium,
			Impact:      LevelMedium,
			Mitigation: []string{
				"Timeline buffer on every phase",
				"Migrate lowest-risk modules first to calibrate estimates",
			},
		},
		{
			ID:          riskPerformance,
			Title:       "Performance regression",
			Description: "The abstraction layer or new stack adds latency under production load.",
			Probability: LevelMedium,
			Impact:      LevelHigh,
			Mitigation: []string{
				"Load test against captured baselines before each wave",
				"Automatic rollback on P99 regression",
			},
		},
		{
			ID:          riskDataLoss,
			Title:       "Data loss or corruption",
			Description: "Records are dropped or altered while data moves between stores.",
			Probability: LevelLow,
			Impact:      LevelCritical,
			Mitigation: []string{
				"Verified backups before every data step",
				"Row count and checksum validation after backfill",
			},
		},
		{
			ID:          riskSkills,
			Title:       "Team skill gap",
			Description: "The team lacks production experience with the target stack.",
			Probability: LevelMedium,
			Impact:      LevelMedium,
			Mitigation: []string{
				"Training budget before phase 3",
				"Pair legacy experts with target stack experts",
			},
		},
	}
	if lowHealth {
		for i := range risks {
			if risks[i].ID == riskParity || risks[i].ID == riskSchedule {
				risks[i].Probability = LevelHigh
			}
		}
	}
	return risks
}
