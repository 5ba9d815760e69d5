// internal/services/event_log.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/models"
)

// EventLog is the append-only history of each application's status. Writes
// only happen through Append inside an ApplicationService transaction.
type EventLog struct {
	db *gorm.DB
}

func NewEventLog(db *gorm.DB) *EventLog {
	return &EventLog{db: db}
}

// Append inserts one event using tx, which must be the transaction that also
// writes the owning application row.
func (l *EventLog) Append(tx *gorm.DB, applicationID uint, eventType models.EventType, fromStatus, toStatus, note *string) (*models.ApplicationEvent, error) {
	event := &models.ApplicationEvent{
		ApplicationID: applicationID,
		EventType:     eventType,
		FromStatus:    fromStatus,
		ToStatus:      toStatus,
		Note:          models.NullableString(note),
	}

	if err := tx.Create(event).Error; err != nil {
		return nil, fmt.Errorf("failed to append %s event: %w", eventType, err)
	}

	return event, nil
}

// ListByApplication returns the events of one application, oldest first.
// It fails with ErrApplicationNotFound when the application does not exist.
func (l *EventLog) ListByApplication(ctx context.Context, applicationID uint) ([]models.ApplicationEvent, error) {
	db := l.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Application{}).Where("id = ?", applicationID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return nil, ErrApplicationNotFound
	}

	events := []models.ApplicationEvent{}
	if err := db.Where("application_id = ?", applicationID).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// ReplayStatus folds an ordered event log into the status it leads to.
func ReplayStatus(events []models.ApplicationEvent) string {
	status := ""
	for _, e := range events {
		if e.ToStatus != nil {
			status = *e.ToStatus
		}
	}
	return status
}
