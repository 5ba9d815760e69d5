// internal/models/event.go
package models

import "time"

// ApplicationEvent is an immutable entry in an application's history. Rows
// are only ever inserted, and only removed by cascade when the owning
// application is deleted.
type ApplicationEvent struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ApplicationID uint      `json:"application_id" gorm:"not null;index:ix_application_events_application_id"`
	EventType     EventType `json:"event_type" gorm:"size:50;not null"`
	FromStatus    *string   `json:"from_status" gorm:"size:50"`
	ToStatus      *string   `json:"to_status" gorm:"size:50"`
	Note          *string   `json:"note" gorm:"size:2000"`
	OccurredAt    time.Time `json:"occurred_at" gorm:"not null;autoCreateTime;index:ix_application_events_occurred_at"`
	CreatedAt     time.Time `json:"-"`
}

func (ApplicationEvent) TableName() string {
	return "application_events"
}
