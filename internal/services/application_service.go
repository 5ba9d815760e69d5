// internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/applied-api/internal/database"
	"github.com/javajoker/applied-api/internal/models"
	"github.com/javajoker/applied-api/internal/utils"
)

type ApplicationService struct {
	db       *gorm.DB
	eventLog *EventLog
	now      func() time.Time
}

type CreateApplicationRequest struct {
	CompanyName    string  `json:"company_name" validate:"notblank,max=200"`
	RoleTitle      string  `json:"role_title" validate:"notblank,max=200"`
	Status         string  `json:"status,omitempty" validate:"max=50"`
	AppliedAt      *string `json:"applied_at,omitempty" validate:"omitnil,datetime=2006-01-02"`
	JobURL         *string `json:"job_url,omitempty" validate:"omitnil,max=1000"`
	JobDescription *string `json:"job_description,omitempty" validate:"omitnil,max=20000"`
	Note           *string `json:"note,omitempty" validate:"omitnil,max=2000"`
}

// UpdateApplicationRequest is a partial update: nil fields are left alone.
// Blank optional text clears the stored value.
type UpdateApplicationRequest struct {
	CompanyName    *string `json:"company_name,omitempty" validate:"omitnil,notblank,max=200"`
	RoleTitle      *string `json:"role_title,omitempty" validate:"omitnil,notblank,max=200"`
	Status         *string `json:"status,omitempty" validate:"omitnil,notblank,max=50"`
	AppliedAt      *string `json:"applied_at,omitempty" validate:"omitnil,datetime=2006-01-02"`
	JobURL         *string `json:"job_url,omitempty" validate:"omitnil,max=1000"`
	JobDescription *string `json:"job_description,omitempty" validate:"omitnil,max=20000"`
	Note           *string `json:"note,omitempty" validate:"omitnil,max=2000"`
}

type ChangeStatusRequest struct {
	ToStatus string  `json:"to_status" validate:"notblank,max=50"`
	Note     *string `json:"note,omitempty" validate:"omitnil,max=2000"`
}

func NewApplicationService(db *gorm.DB, eventLog *EventLog) *ApplicationService {
	return &ApplicationService{
		db:       db,
		eventLog: eventLog,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ApplicationService) Create(ctx context.Context, req *CreateApplicationRequest) (*models.Application, error) {
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.RoleTitle = strings.TrimSpace(req.RoleTitle)
	req.Status = strings.TrimSpace(req.Status)
	trimPtr(req.AppliedAt)
	trimPtr(req.JobURL)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}

	status := req.Status
	if status == "" {
		status = models.DefaultStatus
	}

	appliedAt := models.NewDate(s.now())
	if req.AppliedAt != nil {
		parsed, err := models.ParseDate(*req.AppliedAt)
		if err != nil {
			return nil, newValidationError(err)
		}
		appliedAt = parsed
	}

	application := &models.Application{
		CompanyName:    req.CompanyName,
		RoleTitle:      req.RoleTitle,
		Status:         status,
		AppliedAt:      appliedAt,
		JobURL:         models.NullableString(req.JobURL),
		JobDescription: models.NullableString(req.JobDescription),
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Create(application).Error; err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}

		_, err := s.eventLog.Append(tx, application.ID, models.EventTypeCreated, nil, &status, req.Note)
		return err
	})
	if err != nil {
		return nil, err
	}

	return application, nil
}

func (s *ApplicationService) Get(ctx context.Context, id uint) (*models.Application, error) {
	var application models.Application
	if err := s.db.WithContext(ctx).First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &application, nil
}

// List returns every application, most recently touched first.
func (s *ApplicationService) List(ctx context.Context) ([]models.Application, error) {
	applications := []models.Application{}
	if err := s.listQuery(ctx).Find(&applications).Error; err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, nil
}

// ListPage returns one page of List along with the total row count.
func (s *ApplicationService) ListPage(ctx context.Context, params utils.PaginationParams) ([]models.Application, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Application{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	applications := []models.Application{}
	if err := utils.ApplyPagination(s.listQuery(ctx), params).Find(&applications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return applications, total, nil
}

func (s *ApplicationService) listQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id DESC")
}

// Update applies the fields present in req. A status that differs from the
// stored one is recorded as a status_change event in the same transaction;
// resubmitting the current status records nothing.
func (s *ApplicationService) Update(ctx context.Context, id uint, req *UpdateApplicationRequest) (*models.Application, error) {
	trimPtr(req.CompanyName)
	trimPtr(req.RoleTitle)
	trimPtr(req.Status)
	trimPtr(req.AppliedAt)
	trimPtr(req.JobURL)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}

	var appliedAt *models.Date
	if req.AppliedAt != nil {
		parsed, err := models.ParseDate(*req.AppliedAt)
		if err != nil {
			return nil, newValidationError(err)
		}
		appliedAt = &parsed
	}

	var application models.Application
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := loadApplication(tx, id, &application); err != nil {
			return err
		}

		if req.CompanyName != nil {
			application.CompanyName = *req.CompanyName
		}
		if req.RoleTitle != nil {
			application.RoleTitle = *req.RoleTitle
		}
		if appliedAt != nil {
			application.AppliedAt = *appliedAt
		}
		if req.JobURL != nil {
			application.JobURL = models.NullableString(req.JobURL)
		}
		if req.JobDescription != nil {
			application.JobDescription = models.NullableString(req.JobDescription)
		}

		fromStatus := application.Status
		statusChanged := req.Status != nil && *req.Status != fromStatus
		if statusChanged {
			application.Status = *req.Status
		}

		if err := tx.Save(&application).Error; err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		if statusChanged {
			toStatus := application.Status
			if _, err := s.eventLog.Append(tx, application.ID, models.EventTypeStatusChange, &fromStatus, &toStatus, req.Note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &application, nil
}

// ChangeStatus records an explicit transition. Unlike Update it always
// appends an event, even when to_status equals the current status, so a
// note can be attached to the history without moving the application.
func (s *ApplicationService) ChangeStatus(ctx context.Context, id uint, req *ChangeStatusRequest) (*models.Application, error) {
	req.ToStatus = strings.TrimSpace(req.ToStatus)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, newValidationError(err)
	}

	var application models.Application
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := loadApplication(tx, id, &application); err != nil {
			return err
		}

		fromStatus := application.Status
		application.Status = req.ToStatus

		if err := tx.Save(&application).Error; err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}

		toStatus := application.Status
		_, err := s.eventLog.Append(tx, application.ID, models.EventTypeStatusChange, &fromStatus, &toStatus, req.Note)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &application, nil
}

// Delete removes an application. Its events go with it through the
// ON DELETE CASCADE foreign key.
func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.Application{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete application: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func loadApplication(tx *gorm.DB, id uint, application *models.Application) error {
	if err := tx.First(application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrApplicationNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
