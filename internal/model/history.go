package model

import "time"

// HistoryType classifies a history entry.
type HistoryType string

const (
	HistoryAdoption    HistoryType = "adoption"
	HistorySponsorship HistoryType = "sponsorship"
	HistoryDonation    HistoryType = "donation"
)

// HistoryStatus is the lifecycle state of a history entry.
type HistoryStatus string

const (
	HistoryPending   HistoryStatus = "pending"
	HistoryCompleted HistoryStatus = "completed"
	HistoryCancelled HistoryStatus = "cancelled"
	HistoryRefunded  HistoryStatus = "refunded"
)

// NormalizeHistoryStatus maps any raw status to a known value, defaulting to
// pending.
func NormalizeHistoryStatus(raw string) HistoryStatus {
	switch HistoryStatus(raw) {
	case HistoryPending, HistoryCompleted, HistoryCancelled, HistoryRefunded:
		return HistoryStatus(raw)
	default:
		return HistoryPending
	}
}

// Institution is the denormalized institution object some history payloads
// embed. It is persisted as serialized text on the history row.
type Institution struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
}

// History records an adoption, sponsorship, or donation event.
//
// ExternalReference is the server-assigned correlation id: when present the
// row already has a server counterpart and pushes go out as updates; when
// absent a push must fall back to create semantics.
type History struct {
	ID                string
	Type              HistoryType
	Status            HistoryStatus
	Pet               *Ref[Pet]
	Institution       *Ref[Institution]
	AccountID         string
	Amount            string // decimal kept as text to preserve formatting
	ExternalReference string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastSyncedAt time.Time
}

// Synced reports whether the row has ever reached the server.
func (h *History) Synced() bool {
	return !h.LastSyncedAt.IsZero()
}
