package events

import (
	"time"
)

// EventData is the interface that all event data types must implement
// This allows for type-safe event data while maintaining flexibility
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// SnapshotReloadedData contains data for SnapshotReloaded events
type SnapshotReloadedData struct {
	Version     int64  `json:"version"`
	Products    int    `json:"products"`
	Materials   int    `json:"materials"`
	Zones       int    `json:"zones"`
	TriggeredBy string `json:"triggered_by,omitempty"`
}

// EventType returns the event type for SnapshotReloadedData
func (d *SnapshotReloadedData) EventType() EventType {
	return SnapshotReloaded
}

// RateUpdatedData contains data for RateUpdated events
type RateUpdatedData struct {
	MaterialID    string  `json:"material_id"`
	RatePerKg     float64 `json:"rate_per_kg"`
	PrevRatePerKg float64 `json:"prev_rate_per_kg,omitempty"`
}

// EventType returns the event type for RateUpdatedData
func (d *RateUpdatedData) EventType() EventType {
	return RateUpdated
}

// RateAlertData contains data for RateAlert events emitted by the
// volatility watcher when a material's recent rate swing crosses the
// configured threshold.
type RateAlertData struct {
	MaterialID string  `json:"material_id"`
	ChangePct  float64 `json:"change_pct"`
	WindowDays int     `json:"window_days"`
	Volatility string  `json:"volatility"`
}

// EventType returns the event type for RateAlertData
func (d *RateAlertData) EventType() EventType {
	return RateAlert
}

// TenderCreatedData contains data for TenderCreated events
type TenderCreatedData struct {
	TenderID      string `json:"tender_id"`
	ReferenceCode string `json:"reference_code"`
	ClientID      string `json:"client_id,omitempty"`
}

// EventType returns the event type for TenderCreatedData
func (d *TenderCreatedData) EventType() EventType {
	return TenderCreated
}

// TenderUpdatedData contains data for TenderUpdated events
type TenderUpdatedData struct {
	TenderID string `json:"tender_id"`
	Field    string `json:"field,omitempty"`
}

// EventType returns the event type for TenderUpdatedData
func (d *TenderUpdatedData) EventType() EventType {
	return TenderUpdated
}

// TenderArchivedData contains data for TenderArchived events.
// Archived is false when a tender is restored to the active pool.
type TenderArchivedData struct {
	TenderID string `json:"tender_id"`
	Archived bool   `json:"archived"`
}

// EventType returns the event type for TenderArchivedData
func (d *TenderArchivedData) EventType() EventType {
	return TenderArchived
}

// TenderDeletedData contains data for TenderDeleted events
type TenderDeletedData struct {
	TenderID string `json:"tender_id"`
}

// EventType returns the event type for TenderDeletedData
func (d *TenderDeletedData) EventType() EventType {
	return TenderDeleted
}

// TenderMatchedData contains data for TenderMatched events
type TenderMatchedData struct {
	TenderID   string  `json:"tender_id"`
	ProductSKU string  `json:"product_sku"`
	Confidence float64 `json:"confidence"`
}

// EventType returns the event type for TenderMatchedData
func (d *TenderMatchedData) EventType() EventType {
	return TenderMatched
}

// BidPricedData contains data for BidPriced events
type BidPricedData struct {
	BidID           string  `json:"bid_id"`
	TenderID        string  `json:"tender_id"`
	SnapshotVersion int64   `json:"snapshot_version"`
	FinalBidValue   float64 `json:"final_bid_value"`
	MarginPct       float64 `json:"margin_pct"`
	FloorClamped    bool    `json:"floor_clamped"`
}

// EventType returns the event type for BidPricedData
func (d *BidPricedData) EventType() EventType {
	return BidPriced
}

// RanksUpdatedData contains data for RanksUpdated events
type RanksUpdatedData struct {
	Ranked   int `json:"ranked"`
	Archived int `json:"archived"`
}

// EventType returns the event type for RanksUpdatedData
func (d *RanksUpdatedData) EventType() EventType {
	return RanksUpdated
}

// SettingsChangedData contains data for SettingsChanged events
type SettingsChangedData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// EventType returns the event type for SettingsChangedData
func (d *SettingsChangedData) EventType() EventType {
	return SettingsChanged
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Kind      string `json:"kind"` // "local" or "remote"
	Databases int    `json:"databases"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
	Path      string `json:"path,omitempty"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// JobStatusData contains data for work item lifecycle events
type JobStatusData struct {
	WorkID    string    `json:"work_id"`
	TypeID    string    `json:"type_id"`
	Subject   string    `json:"subject,omitempty"`
	Status    string    `json:"status"` // "started", "completed", "failed"
	Error     string    `json:"error,omitempty"`
	Duration  float64   `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType returns the event type for JobStatusData
// Note: The actual event type is determined by the Status field
func (d *JobStatusData) EventType() EventType {
	switch d.Status {
	case "completed":
		return JobCompleted
	case "failed":
		return JobFailed
	default:
		return JobStarted
	}
}
