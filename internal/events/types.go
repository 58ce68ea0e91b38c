// Package events provides event management functionality.
package events

// EventType represents different event types
type EventType string

const (
	// Reference data lifecycle
	SnapshotReloaded EventType = "SNAPSHOT_RELOADED"
	RateUpdated      EventType = "RATE_UPDATED"
	RateAlert        EventType = "RATE_ALERT"

	// Tender lifecycle
	TenderCreated  EventType = "TENDER_CREATED"
	TenderUpdated  EventType = "TENDER_UPDATED"
	TenderArchived EventType = "TENDER_ARCHIVED"
	TenderDeleted  EventType = "TENDER_DELETED"
	TenderMatched  EventType = "TENDER_MATCHED"

	// Pricing and ranking
	BidPriced    EventType = "BID_PRICED"
	RanksUpdated EventType = "RANKS_UPDATED"

	// System
	SettingsChanged EventType = "SETTINGS_CHANGED"
	BackupCompleted EventType = "BACKUP_COMPLETED"
	ErrorOccurred   EventType = "ERROR_OCCURRED"

	// Work processor lifecycle (consumed by the live stream)
	JobStarted   EventType = "JOB_STARTED"
	JobCompleted EventType = "JOB_COMPLETED"
	JobFailed    EventType = "JOB_FAILED"
)
