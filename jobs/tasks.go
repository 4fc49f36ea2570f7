package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskIntercompanyAutoMatch pairs pending mirror transactions.
	TaskIntercompanyAutoMatch = "intercompany:auto_match"
	// TaskLedgerIntegrity scans posted journal entries for imbalances.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// AutoMatchPayload bounds a single auto-match sweep.
type AutoMatchPayload struct {
	Limit int `json:"limit"`
}

// LedgerIntegrityPayload limits the integrity scan to one company when set.
type LedgerIntegrityPayload struct {
	CompanyID int64 `json:"company_id,omitempty"`
}

// IdempotencyCleanupPayload sets the retention window in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewAutoMatchTask constructs an auto-match task.
func NewAutoMatchTask(limit int) (*asynq.Task, error) {
	return newTask(TaskIntercompanyAutoMatch, AutoMatchPayload{Limit: limit})
}

// NewLedgerIntegrityTask constructs a ledger integrity task.
func NewLedgerIntegrityTask(companyID int64) (*asynq.Task, error) {
	return newTask(TaskLedgerIntegrity, LedgerIntegrityPayload{CompanyID: companyID})
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{RetentionHours: int(retention.Hours())})
}

// NewTaskByName builds a task with default payload for manual triggering.
func NewTaskByName(name string) (*asynq.Task, error) {
	switch name {
	case TaskIntercompanyAutoMatch:
		return NewAutoMatchTask(0)
	case TaskLedgerIntegrity:
		return NewLedgerIntegrityTask(0)
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(0)
	default:
		return nil, fmt.Errorf("jobs: unsupported task %s", name)
	}
}

func newTask(taskType string, payload any) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}
