package store

import "time"

// PipelineRun is the manifest of one full pipeline execution: which
// configuration produced it, whether it succeeded, and how many rows each
// stage emitted.
type PipelineRun struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	ConfigHash  string    `gorm:"index" json:"config_hash"`
	Status      string    `json:"status"`
	Seed        uint64    `json:"seed"`
	RunRecords  int       `json:"run_records"`
	TracePoints int       `json:"trace_points"`
	Metrics     int       `json:"metrics"`
}

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisRecord is one persisted pairwise comparison outcome, linked to
// the pipeline run that produced it.
type AnalysisRecord struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	PipelineRunID uint    `gorm:"index" json:"pipeline_run_id"`
	Metric        string  `json:"metric"`
	ApproachA     string  `json:"approach_a"`
	ApproachB     string  `json:"approach_b"`
	UStatistic    float64 `json:"u_statistic"`
	PValue        float64 `json:"p_value"`
	Significant   bool    `json:"significant"`
	EffectSize    float64 `json:"effect_size"`
}
