package dto

// ── 用户偏好模块 DTO ──

// UpsertOverrideRequest 更新日历覆盖请求
// 除 CalendarID 外全部可选：仅更新请求中出现的字段（upsert 语义）
type UpsertOverrideRequest struct {
	CalendarID  string  `json:"calendarId"  binding:"required"`
	DisplayName *string `json:"displayName" binding:"omitempty,max=100"`
	Color       *string `json:"color"       binding:"omitempty,max=16"`
	SortOrder   *int    `json:"sortOrder"`
	Hidden      *bool   `json:"hidden"`
	Pinned      *bool   `json:"pinned"`
}

// OverrideResponse 日历覆盖响应
type OverrideResponse struct {
	CalendarID  string  `json:"calendarId"`
	DisplayName *string `json:"displayName"`
	Color       *string `json:"color"`
	SortOrder   int     `json:"sortOrder"`
	Hidden      bool    `json:"hidden"`
	Pinned      bool    `json:"pinned"`
}

// MergedCalendar 合并覆盖后的日历列表项（/calendars 响应）
type MergedCalendar struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder int    `json:"sortOrder"`
	Hidden    bool   `json:"hidden"`
	Pinned    bool   `json:"pinned"`
}

// UpdateSettingsRequest 更新用户设置请求（仅更新出现的字段）
type UpdateSettingsRequest struct {
	WeekStartsOn         *int    `json:"weekStartsOn"         binding:"omitempty,min=0,max=6"`
	SidebarOpen          *bool   `json:"sidebarOpen"`
	Theme                *string `json:"theme"                binding:"omitempty,oneof=light dark system"`
	Timezone             *string `json:"timezone"             binding:"omitempty,max=64"`
	DefaultEventDuration *int    `json:"defaultEventDuration" binding:"omitempty,min=5,max=720"`
}

// SettingsResponse 用户设置响应
type SettingsResponse struct {
	WeekStartsOn         int    `json:"weekStartsOn"`
	SidebarOpen          bool   `json:"sidebarOpen"`
	Theme                string `json:"theme"`
	Timezone             string `json:"timezone"`
	DefaultEventDuration int    `json:"defaultEventDuration"`
}

// [自证通过] internal/dto/preference.go
