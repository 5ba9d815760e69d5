// internal/handlers/application.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/applied-api/internal/i18n"
	"github.com/javajoker/applied-api/internal/services"
	"github.com/javajoker/applied-api/internal/utils"
)

const ReplayedStatusHeader = "X-Replayed-Status"

type ApplicationHandler struct {
	applicationService *services.ApplicationService
	eventLog           *services.EventLog
}

func NewApplicationHandler(applicationService *services.ApplicationService, eventLog *services.EventLog) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		eventLog:           eventLog,
	}
}

// GET /applications
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	params, paginate := utils.GetPaginationParams(c)
	if !paginate {
		applications, err := h.applicationService.List(c.Request.Context())
		if err != nil {
			h.handleError(c, err)
			return
		}
		utils.SuccessResponse(c, applications)
		return
	}

	applications, total, err := h.applicationService.ListPage(c.Request.Context(), params)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SetPaginationHeaders(c, utils.CreatePaginationResult(total, params))
	utils.SuccessResponse(c, applications)
}

// GET /applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	application, err := h.applicationService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SuccessResponse(c, application)
}

// POST /applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req services.CreateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"application_id": application.ID,
		"status":         application.Status,
		"request_id":     utils.GetRequestIDFromContext(c),
	}).Info("Application created")

	utils.SuccessResponse(c, application)
}

// PATCH /applications/:id
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req services.UpdateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	utils.SuccessResponse(c, application)
}

// POST /applications/:id/status
func (h *ApplicationHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req services.ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	application, err := h.applicationService.ChangeStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"application_id": application.ID,
		"to_status":      application.Status,
		"request_id":     utils.GetRequestIDFromContext(c),
	}).Info("Application status changed")

	utils.SuccessResponse(c, application)
}

// GET /applications/:id/events
func (h *ApplicationHandler) ListEvents(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	events, err := h.eventLog.ListByApplication(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header(ReplayedStatusHeader, services.ReplayStatus(events))
	utils.SuccessResponse(c, events)
}

// DELETE /applications/:id
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.applicationService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *ApplicationHandler) handleError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Fields)
	case errors.Is(err, services.ErrApplicationNotFound):
		utils.NotFoundResponse(c, i18n.KeyApplicationNotFound)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": utils.GetRequestIDFromContext(c),
		}).Error("Request failed")
		utils.InternalErrorResponse(c)
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyApplicationInvalid), nil)
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationBody), err.Error())
		return false
	}
	return true
}
