package domain

import "time"

// FailedProto records a proto whose pricing exhausted its retries and is
// waiting in the requeue pipeline.
type FailedProto struct {
	Proto       ProtoID   `json:"proto"`
	Collection  string    `json:"collection"`
	RetryCount  int       `json:"retry_count"`
	LastError   string    `json:"last_error"`
	FirstFailed time.Time `json:"first_failed"`
	LastAttempt time.Time `json:"last_attempt"`
}
