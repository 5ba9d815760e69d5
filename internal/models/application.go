// internal/models/application.go
package models

import "time"

type Application struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	CompanyName    string    `json:"company_name" gorm:"size:200;not null;index:ix_applications_company_name"`
	RoleTitle      string    `json:"role_title" gorm:"size:200;not null"`
	Status         string    `json:"status" gorm:"size:50;not null;index:ix_applications_status"`
	AppliedAt      Date      `json:"applied_at" gorm:"not null;index:ix_applications_applied_at"`
	JobURL         *string   `json:"job_url" gorm:"size:1000;index:ix_applications_job_url"`
	JobDescription *string   `json:"job_description" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relationships
	Events []ApplicationEvent `json:"events,omitempty" gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
}

func (Application) TableName() string {
	return "applications"
}
