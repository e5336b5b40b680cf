package domain

import "time"

// Administrative action names recorded in the history.
const (
	ActionProvision       = "provision"
	ActionDeleteIndex     = "delete_index"
	ActionDeleteAll       = "delete_all"
	ActionChangeTokenizer = "change_tokenizer"
	ActionRunIndexJob     = "run_index_job"
)

// Operation statuses.
const (
	OperationRunning   = "running"
	OperationSucceeded = "succeeded"
	OperationPartial   = "partial"
	OperationFailed    = "failed"
)

// Operation is one audited administrative action.
type Operation struct {
	ID         string     `db:"id"          json:"id"`
	Action     string     `db:"action"      json:"action"`
	Target     string     `db:"target"      json:"target,omitempty"`
	Actor      string     `db:"actor"       json:"actor,omitempty"`
	Status     string     `db:"status"      json:"status"`
	Error      *string    `db:"error"       json:"error,omitempty"`
	StartedAt  time.Time  `db:"started_at"  json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}
