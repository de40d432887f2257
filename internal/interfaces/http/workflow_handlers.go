package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/travel-approval/internal/application/workflow"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/pkg/utils"
)

// CreateRequestBody is the payload of POST /api/v1/requests
type CreateRequestBody struct {
	TravelDetails entity.TravelDetails `json:"travel_details"`
	ApprovalChain entity.ApprovalChain `json:"approval_chain" binding:"required"`
}

// EditRequestBody is the payload of PUT /api/v1/requests/:id
type EditRequestBody struct {
	TravelDetails entity.TravelDetails `json:"travel_details"`
}

// CommentBody carries reviewer comments or a close reason
type CommentBody struct {
	Comments string `json:"comments"`
}

// SelectTicketBody is the payload of POST /api/v1/requests/:id/select-ticket
type SelectTicketBody struct {
	TicketOptionID int64 `json:"ticket_option_id" binding:"required,gt=0"`
}

// CanActResponse answers GET /api/v1/requests/:id/can-act
type CanActResponse struct {
	RequestID int64 `json:"request_id"`
	UserID    int64 `json:"user_id"`
	CanAct    bool  `json:"can_act"`
}

// CreateRequest handles POST /api/v1/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	req, err := h.engine.CreateRequest(c.Request.Context(), actorFrom(c), body.TravelDetails, body.ApprovalChain)
	if err != nil {
		h.fail(c, "create request", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    req,
	})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	req, err := h.engine.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get request", err)
		return
	}
	ok(c, req)
}

// EditRequest handles PUT /api/v1/requests/:id
func (h *Handlers) EditRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var body EditRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	req, err := h.engine.EditRequest(c.Request.Context(), id, actorFrom(c), body.TravelDetails)
	if err != nil {
		h.fail(c, "edit request", err)
		return
	}
	ok(c, req)
}

// SubmitRequest handles POST /api/v1/requests/:id/submit
func (h *Handlers) SubmitRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	req, err := h.engine.SubmitRequest(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.fail(c, "submit request", err)
		return
	}
	ok(c, req)
}

type commentedTransition func(ctx context.Context, requestID int64, actor workflow.Actor, comments string) (*entity.TravelRequest, error)

// transitionWithComments runs a reviewer transition whose body is an optional CommentBody
func (h *Handlers) transitionWithComments(c *gin.Context, op string, fn commentedTransition) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var body CommentBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
	}

	req, err := fn(c.Request.Context(), id, actorFrom(c), utils.SanitizeComment(body.Comments))
	if err != nil {
		h.fail(c, op, err)
		return
	}
	ok(c, req)
}

// ApproveRequest handles POST /api/v1/requests/:id/approve
func (h *Handlers) ApproveRequest(c *gin.Context) {
	h.transitionWithComments(c, "approve request", h.engine.ApproveRequest)
}

// RejectRequest handles POST /api/v1/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.transitionWithComments(c, "reject request", h.engine.RejectRequest)
}

// ReturnForReview handles POST /api/v1/requests/:id/return
func (h *Handlers) ReturnForReview(c *gin.Context) {
	h.transitionWithComments(c, "return request", h.engine.ReturnForReview)
}

// CloseRequest handles POST /api/v1/requests/:id/close
func (h *Handlers) CloseRequest(c *gin.Context) {
	h.transitionWithComments(c, "close request", h.engine.CloseRequest)
}

// SelectTicketOption handles POST /api/v1/requests/:id/select-ticket
func (h *Handlers) SelectTicketOption(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var body SelectTicketBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	req, err := h.engine.SelectTicketOption(c.Request.Context(), id, body.TicketOptionID, actorFrom(c))
	if err != nil {
		h.fail(c, "select ticket option", err)
		return
	}
	ok(c, req)
}

// AddTicketOption handles POST /api/v1/requests/:id/ticket-options
func (h *Handlers) AddTicketOption(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	var option entity.TicketOption
	if err := c.ShouldBindJSON(&option); err != nil {
		badRequest(c, err)
		return
	}
	option.ID = 0
	option.RequestID = id

	created, err := h.engine.AddTicketOption(c.Request.Context(), &option, actorFrom(c))
	if err != nil {
		h.fail(c, "add ticket option", err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    created,
	})
}

// GetTicketOptions handles GET /api/v1/requests/:id/ticket-options
func (h *Handlers) GetTicketOptions(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	options, err := h.engine.GetTicketOptions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get ticket options", err)
		return
	}
	ok(c, nonNil(options))
}

// GetApprovals handles GET /api/v1/requests/:id/approvals
func (h *Handlers) GetApprovals(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	approvals, err := h.engine.GetApprovals(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get approvals", err)
		return
	}
	ok(c, nonNil(approvals))
}

// GetRequestAuditLogs handles GET /api/v1/requests/:id/audit-logs
func (h *Handlers) GetRequestAuditLogs(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	logs, err := h.engine.GetRequestAuditLogs(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get audit logs", err)
		return
	}
	ok(c, nonNil(logs))
}

// GetNextApprover handles GET /api/v1/requests/:id/next-approver.
// Data is null when nobody is bound for the current status.
func (h *Handlers) GetNextApprover(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	user, err := h.engine.GetNextApprover(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get next approver", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// CanUserActOnRequest handles GET /api/v1/requests/:id/can-act
func (h *Handlers) CanUserActOnRequest(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	actor := actorFrom(c)
	canAct, err := h.engine.CanUserActOnRequest(c.Request.Context(), actor.UserID, id)
	if err != nil {
		h.fail(c, "check permission", err)
		return
	}
	ok(c, CanActResponse{RequestID: id, UserID: actor.UserID, CanAct: canAct})
}

// GetUserRequests handles GET /api/v1/me/requests
func (h *Handlers) GetUserRequests(c *gin.Context) {
	requests, err := h.engine.GetUserRequests(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.fail(c, "get user requests", err)
		return
	}
	ok(c, nonNil(requests))
}

// GetPendingApprovals handles GET /api/v1/me/pending-approvals
func (h *Handlers) GetPendingApprovals(c *gin.Context) {
	requests, err := h.engine.GetPendingApprovals(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.fail(c, "get pending approvals", err)
		return
	}
	ok(c, nonNil(requests))
}

// GetUserNotifications handles GET /api/v1/me/notifications
func (h *Handlers) GetUserNotifications(c *gin.Context) {
	notes, err := h.engine.GetUserNotifications(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		h.fail(c, "get notifications", err)
		return
	}
	ok(c, nonNil(notes))
}

// MarkNotificationRead handles POST /api/v1/me/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), actorFrom(c).UserID, id); err != nil {
		h.fail(c, "mark notification read", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportRequestAuditLog handles GET /api/v1/requests/:id/audit-logs/export
func (h *Handlers) ExportRequestAuditLog(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	h.exportAuditLog(c, id)
}

// ExportAllAuditLogs handles GET /api/v1/audit-logs/export
func (h *Handlers) ExportAllAuditLogs(c *gin.Context) {
	h.exportAuditLog(c, 0)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handlers) exportAuditLog(c *gin.Context, requestID int64) {
	actor := actorFrom(c)
	result, err := h.exports.ExportAuditLog(c.Request.Context(), actor.UserID, requestID)
	if err != nil {
		h.fail(c, "export audit log", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Header("X-Audit-Entry-Count", strconv.Itoa(result.EntryCount))
	c.Data(http.StatusOK, xlsxContentType, result.Content)
}

// nonNil keeps empty lists as [] instead of null in responses
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
