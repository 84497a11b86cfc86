package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReadingValidated is emitted when a manager validates a meter reading.
type ReadingValidated struct {
	TenantID   string
	ReadingID  string
	MeterID    string
	Value      decimal.Decimal
	ReadAt     time.Time
	OccurredAt time.Time
}

// ReadingRejected is emitted when a manager rejects a meter reading.
type ReadingRejected struct {
	TenantID   string
	ReadingID  string
	MeterID    string
	Note       string
	OccurredAt time.Time
}
