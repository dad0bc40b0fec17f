package models

import "time"

// Stages at which a target can fail.
const (
	StageResolve = "resolve"
	StageFetch   = "fetch"
	StageExtract = "extract"
)

// TargetOutcome reports what happened to one target during a run.
type TargetOutcome struct {
	Jurisdiction Jurisdiction
	URL          string
	Records      int
	Stage        string // empty on success
	Err          error
	Duration     time.Duration
}

// Succeeded reports whether the target contributed records.
func (o TargetOutcome) Succeeded() bool {
	return o.Err == nil && o.Records > 0
}

// RunResult holds the overall result of a collection run.
type RunResult struct {
	Outcomes     []TargetOutcome
	StartTime    time.Time
	EndTime      time.Time
	TotalRecords int
	Files        []string
}

// Failed returns the outcomes that contributed no records.
func (r *RunResult) Failed() []TargetOutcome {
	var failed []TargetOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}
