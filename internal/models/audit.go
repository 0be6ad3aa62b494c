package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionInterventionCreate = "INTERVENTION_CREATE"
	AuditActionInterventionUpdate = "INTERVENTION_UPDATE"
	AuditActionInterventionDelete = "INTERVENTION_DELETE"
	AuditActionBatchRecompute     = "BATCH_RECOMPUTE"
)

// AuditLog represents an audit trail record. Writes are best effort: a
// failed insert never fails the primary mutation.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Detail     []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
