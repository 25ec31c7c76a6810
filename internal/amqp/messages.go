package amqp

import (
	"encoding/json"
	"time"

	"lifeboard/internal/core"
)

// SnapshotRefreshMessage asks the worker to rebuild one period's review
// snapshot. It carries only the period identity; the worker fetches the raw
// records itself.
type SnapshotRefreshMessage struct {
	OwnerID     string          `json:"owner_id"`
	PeriodKind  core.PeriodKind `json:"period_kind"`
	PeriodKey   core.PeriodKey  `json:"period_key"`
	RequestedAt time.Time       `json:"requested_at"`
}

func NewSnapshotRefreshMessage(ownerID string, kind core.PeriodKind, key core.PeriodKey) *SnapshotRefreshMessage {
	return &SnapshotRefreshMessage{
		OwnerID:     ownerID,
		PeriodKind:  kind,
		PeriodKey:   key,
		RequestedAt: time.Now(),
	}
}

func (m *SnapshotRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotRefreshMessageFromJSON(data []byte) (*SnapshotRefreshMessage, error) {
	var msg SnapshotRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
