package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yodering/nook/internal/dto"
	"github.com/yodering/nook/internal/service"
	"github.com/yodering/nook/pkg/response"
)

// EventHandler Google 事件写入模块 HTTP 处理器
type EventHandler struct {
	eventSvc service.EventService
}

// NewEventHandler 创建 EventHandler
func NewEventHandler(eventSvc service.EventService) *EventHandler {
	return &EventHandler{eventSvc: eventSvc}
}

// Create 创建 Google 事件
// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数校验失败")
		return
	}

	event, err := h.eventSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.Created(c, event)
}

// Update 更新 Google 事件
// PATCH /api/events
func (h *EventHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数校验失败")
		return
	}

	event, err := h.eventSvc.Update(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OK(c, event)
}

// Delete 删除 Google 事件
// DELETE /api/events
func (h *EventHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.DeleteEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数校验失败")
		return
	}

	if err := h.eventSvc.Delete(c.Request.Context(), userID, req.CalendarID, req.EventID); err != nil {
		h.handleEventError(c, err)
		return
	}

	response.OKFlag(c)
}

// handleEventError 统一处理事件模块业务错误
func (h *EventHandler) handleEventError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrInvalidStartTime) {
		response.BadRequest(c, "start 无法解析为有效时间")
		return
	}
	handleProviderError(c, err)
}

// [自证通过] internal/api/handler/event_handler.go
