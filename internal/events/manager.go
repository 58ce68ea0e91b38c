package events

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// Event represents a system event with typed data
// The Data field can be either EventData (typed) or map[string]interface{} (legacy)
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}

// GetTypedData attempts to convert the Data map to typed EventData
// Returns the typed data if conversion is successful, nil otherwise
func (e *Event) GetTypedData() EventData {
	if e.Data == nil {
		return nil
	}

	switch e.Type {
	case SnapshotReloaded:
		var data SnapshotReloadedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case RateUpdated:
		var data RateUpdatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case RateAlert:
		var data RateAlertData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case TenderCreated:
		var data TenderCreatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case TenderUpdated:
		var data TenderUpdatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case TenderArchived:
		var data TenderArchivedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case TenderDeleted:
		var data TenderDeletedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case TenderMatched:
		var data TenderMatchedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case BidPriced:
		var data BidPricedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case RanksUpdated:
		var data RanksUpdatedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case SettingsChanged:
		var data SettingsChangedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case BackupCompleted:
		var data BackupCompletedData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case ErrorOccurred:
		var data ErrorEventData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	case JobStarted, JobCompleted, JobFailed:
		var data JobStatusData
		if err := convertMapToStruct(e.Data, &data); err == nil {
			return &data
		}
	}

	return nil
}

// convertMapToStruct converts a map[string]interface{} to a struct
func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}

// Manager handles event emission and logging
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager creates a new event manager
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{
		bus: bus,
		log: log.With().Str("service", "events").Logger(),
	}
}

// Emit emits an event to the bus and logs it
func (m *Manager) Emit(eventType EventType, module string, data map[string]interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
		Module:    module,
	}

	m.bus.Emit(eventType, module, data)

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}

// EmitTyped emits an event with typed data to the bus and logs it
func (m *Manager) EmitTyped(eventType EventType, module string, data EventData) {
	dataMap := convertEventDataToMap(data)

	event := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      dataMap,
		Module:    module,
	}

	m.bus.Emit(eventType, module, dataMap)

	eventJSON, _ := json.Marshal(event)
	m.log.Info().
		Str("event_type", string(eventType)).
		Str("module", module).
		RawJSON("event", eventJSON).
		Msg("Event emitted")
}

// EmitError emits an error event
func (m *Manager) EmitError(module string, err error, context map[string]interface{}) {
	data := &ErrorEventData{
		Error:   err.Error(),
		Context: context,
	}
	m.EmitTyped(ErrorOccurred, module, data)
}

// convertEventDataToMap converts typed EventData to map[string]interface{}
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}

	return result
}
