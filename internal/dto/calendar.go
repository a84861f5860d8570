package dto

import "strings"

// ── 周视图载荷 DTO ──
// 字段名与前端约定保持 camelCase

// Module 展示就绪的日历（合并覆盖后的规范形态）
type Module struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// CalendarEvent 定时事件
// ID 为复合 ID "{moduleId}:{providerEventId}"，用于把编辑路由回正确的远端资源
// DayOffset 以周一为 0
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ModuleID    string `json:"moduleId"`
	DayOffset   int    `json:"dayOffset"`
	StartHour   int    `json:"startHour"`
	StartMinute int    `json:"startMinute"`
	EndHour     int    `json:"endHour"`
	EndMinute   int    `json:"endMinute"`
}

// TodoList 待办清单（本地清单或镜像某个日历模块的派生清单）
type TodoList struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Color    string `json:"color"`
	ModuleID string `json:"moduleId,omitempty"`
}

// Todo 待办事项
// Source 区分本地持久化待办与 Google 全天事件派生待办（后者只读，每次拉取重新合成）
type Todo struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	ListID        string  `json:"listId"`
	Completed     bool    `json:"completed"`
	DueAt         *string `json:"dueAt"`
	ScheduleToken *string `json:"scheduleToken"`
	Source        string  `json:"source"` // "local" | "google"
}

// WeekCalendarPayload 周视图聚合载荷：每次请求现算，服务端不缓存
type WeekCalendarPayload struct {
	Modules   []Module        `json:"modules"`
	Events    []CalendarEvent `json:"events"`
	TodoLists []TodoList      `json:"todoLists"`
	Todos     []Todo          `json:"todos"`
}

// ── 托底配色 ──

// ModuleColors 模块托底调色板：覆盖色与 Google 背景色都缺失时按 ID 哈希取色
var ModuleColors = []string{
	"#E8A0A0",
	"#A0C4BC",
	"#B8A0D4",
	"#A8C4A0",
	"#D4B896",
	"#A0B8D4",
}

// FallbackColorIndex 由稳定 ID 确定性地导出调色板下标
// 同一日历在任何一次请求中都得到相同的托底颜色
func FallbackColorIndex(id string) int {
	var hash int32
	for _, ch := range id {
		hash = hash*31 + int32(ch)
	}
	n := int(hash)
	if n < 0 {
		n = -n
	}
	return n % len(ModuleColors)
}

// ── 复合事件 ID ──

const eventIDSeparator = ":"

// ComposeEventID 组合 "{moduleId}:{providerEventId}"
func ComposeEventID(moduleID, eventID string) string {
	return moduleID + eventIDSeparator + eventID
}

// ParseEventID 解析复合事件 ID
// 分隔符缺失、或任一侧为空时返回 ok=false，调用方必须在发起网络请求前拒绝
func ParseEventID(raw string) (moduleID, eventID string, ok bool) {
	moduleID, eventID, found := strings.Cut(raw, eventIDSeparator)
	if !found || moduleID == "" || eventID == "" {
		return "", "", false
	}
	return moduleID, eventID, true
}

// ── 来源前缀 ──
// 本地清单 "local-<uuid>"、本地待办 "task-<uuid>"、
// 日历镜像清单 "list-<calendarId>"、全天事件派生待办 "todo-<calendarId>-<eventId>"

const (
	LocalListPrefix  = "local-"
	LocalTodoPrefix  = "task-"
	ModuleListPrefix = "list-"
)

// ParseLocalListID 剥离本地清单前缀；非本地清单 ID 返回 ok=false
func ParseLocalListID(raw string) (string, bool) {
	id, found := strings.CutPrefix(raw, LocalListPrefix)
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// ParseLocalTodoID 剥离本地待办前缀；非本地待办 ID 返回 ok=false
func ParseLocalTodoID(raw string) (string, bool) {
	id, found := strings.CutPrefix(raw, LocalTodoPrefix)
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// [自证通过] internal/dto/calendar.go
