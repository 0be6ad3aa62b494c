package models

import "time"

// CohortScope selects how a batch run picks its students.
type CohortScope string

const (
	CohortAll    CohortScope = "all"    // every active student
	CohortRecent CohortScope = "recent" // active in the trailing 7 days or enrolled in a semester
	CohortSingle CohortScope = "single" // one student id
)

// CohortSpec describes the set of students a batch run will process.
// It is request-scoped and never persisted.
type CohortSpec struct {
	Scope      CohortScope `json:"scope"`
	StudentID  string      `json:"student_id,omitempty"`
	SemesterID string      `json:"semester_id,omitempty"`
}

// Valid reports whether the cohort selection is well-formed.
func (s CohortSpec) Valid() bool {
	switch s.Scope {
	case CohortAll, CohortRecent:
		return true
	case CohortSingle:
		return s.StudentID != ""
	default:
		return false
	}
}

// BatchRunResult summarises one orchestrator invocation. Returned to the
// caller and logged, never persisted.
type BatchRunResult struct {
	Processed int           `json:"processed"`
	Errors    int           `json:"errors"`
	Elapsed   time.Duration `json:"-"`
	ElapsedMs int64         `json:"elapsed_ms"`
	Partial   bool          `json:"partial"`
}
