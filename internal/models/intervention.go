package models

import (
	"time"

	"github.com/lib/pq"
)

// InterventionType enumerates how staff reach out to a student.
type InterventionType string

const (
	InterventionEmail          InterventionType = "email"
	InterventionMessage        InterventionType = "message"
	InterventionMeeting        InterventionType = "meeting"
	InterventionCall           InterventionType = "call"
	InterventionWarning        InterventionType = "warning"
	InterventionSupportRef     InterventionType = "support_referral"
	InterventionGradeRecovery  InterventionType = "grade_recovery"
	InterventionScheduleChange InterventionType = "schedule_change"
	InterventionOther          InterventionType = "other"
)

// Valid reports whether the type is one of the enumerated values.
func (t InterventionType) Valid() bool {
	switch t {
	case InterventionEmail, InterventionMessage, InterventionMeeting,
		InterventionCall, InterventionWarning, InterventionSupportRef,
		InterventionGradeRecovery, InterventionScheduleChange, InterventionOther:
		return true
	default:
		return false
	}
}

// InterventionStatus tracks the lifecycle state machine:
// pending -> in_progress -> {closed | successful | unsuccessful}.
type InterventionStatus string

const (
	StatusPending      InterventionStatus = "pending"
	StatusInProgress   InterventionStatus = "in_progress"
	StatusClosed       InterventionStatus = "closed"
	StatusSuccessful   InterventionStatus = "successful"
	StatusUnsuccessful InterventionStatus = "unsuccessful"
)

// Valid reports whether the status is one of the enumerated values.
func (s InterventionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusClosed, StatusSuccessful, StatusUnsuccessful:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is expected.
func (s InterventionStatus) Terminal() bool {
	return s == StatusClosed || s == StatusSuccessful || s == StatusUnsuccessful
}

// Intervention records a staff outreach action for an at-risk student. The
// trigger fields are a point-in-time copy of the risk data that prompted the
// intervention, not a live reference.
type Intervention struct {
	ID                  string             `db:"id" json:"id"`
	StudentID           string             `db:"student_id" json:"student_id"`
	CreatedBy           string             `db:"created_by" json:"created_by"`
	Type                InterventionType   `db:"type" json:"type"`
	Title               string             `db:"title" json:"title"`
	Description         string             `db:"description" json:"description"`
	Notes               string             `db:"notes" json:"notes"`
	FollowUpDate        *time.Time         `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpRequired    bool               `db:"follow_up_required" json:"follow_up_required"`
	TriggerRiskScore    int                `db:"trigger_risk_score" json:"trigger_risk_score"`
	TriggerRiskFactors  pq.StringArray     `db:"trigger_risk_factors" json:"trigger_risk_factors"`
	Status              InterventionStatus `db:"status" json:"status"`
	Outcome             string             `db:"outcome" json:"outcome"`
	EffectivenessRating *int               `db:"effectiveness_rating" json:"effectiveness_rating,omitempty"`
	ClosedAt            *time.Time         `db:"closed_at" json:"closed_at,omitempty"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
}

// CreateInterventionRequest is the payload for opening an intervention.
type CreateInterventionRequest struct {
	StudentID          string           `json:"student_id" validate:"required"`
	Type               InterventionType `json:"type" validate:"required"`
	Title              string           `json:"title" validate:"required"`
	Description        string           `json:"description"`
	FollowUpDate       *time.Time       `json:"follow_up_date,omitempty"`
	FollowUpRequired   bool             `json:"follow_up_required"`
	TriggerRiskScore   int              `json:"trigger_risk_score"`
	TriggerRiskFactors []string         `json:"trigger_risk_factors,omitempty"`
}

// UpdateInterventionRequest carries the mutable fields; nil means unchanged.
type UpdateInterventionRequest struct {
	Status              *InterventionStatus `json:"status,omitempty"`
	Outcome             *string             `json:"outcome,omitempty"`
	EffectivenessRating *int                `json:"effectiveness_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes               *string             `json:"notes,omitempty"`
	FollowUpDate        *time.Time          `json:"follow_up_date,omitempty"`
	FollowUpRequired    *bool               `json:"follow_up_required,omitempty"`
}

// InterventionFilter scopes intervention listings.
type InterventionFilter struct {
	StudentID string
	CreatedBy string
	Status    *InterventionStatus
	Page      int
	PageSize  int
}
