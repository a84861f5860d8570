package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yodering/nook/internal/dto"
)

// Status 周视图会话状态机
// idle → loading → {ready, error}；锚点日期变更时重新进入 loading
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

var (
	// ErrSuperseded 请求在途中被更新锚点的请求取代，结果已丢弃
	ErrSuperseded = errors.New("请求已被更新的周视图请求取代")
	// ErrMalformedEventID 复合事件 ID 缺失分隔符或任一侧为空
	ErrMalformedEventID = errors.New("复合事件 ID 格式非法")
	// ErrNotReady 状态尚未就绪，无法执行本地变更
	ErrNotReady = errors.New("周视图尚未加载完成")
)

// WeekSnapshot 某一时刻的完整周状态（整值替换，调用方可安全持有）
type WeekSnapshot struct {
	Status    Status
	Anchor    time.Time
	Modules   []dto.Module
	Events    []dto.CalendarEvent
	TodoLists []dto.TodoList
	Todos     []dto.Todo
	LastError error
}

// WeekStore 单个会话的周状态容器
// 所有状态变更都经由本类型完成；加载失败时保留上一次成功载荷
// （stale-while-revalidate），仅覆盖状态与错误信息。
type WeekStore struct {
	mu         sync.Mutex
	api        API
	logger     *zap.Logger
	status     Status
	anchor     time.Time
	modules    []dto.Module
	events     []dto.CalendarEvent
	todoLists  []dto.TodoList
	todos      []dto.Todo
	lastErr    error
	generation uint64
	cancel     context.CancelFunc
}

// NewWeekStore 创建 WeekStore
func NewWeekStore(api API, logger *zap.Logger) *WeekStore {
	return &WeekStore{api: api, logger: logger, status: StatusIdle}
}

// Snapshot 返回当前状态的整值拷贝
func (s *WeekStore) Snapshot() WeekSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WeekSnapshot{
		Status:    s.status,
		Anchor:    s.anchor,
		Modules:   append([]dto.Module(nil), s.modules...),
		Events:    append([]dto.CalendarEvent(nil), s.events...),
		TodoLists: append([]dto.TodoList(nil), s.todoLists...),
		Todos:     append([]dto.Todo(nil), s.todos...),
		LastError: s.lastErr,
	}
}

// ────────────────────── 周加载 ──────────────────────

// LoadWeek 加载锚点日期所在周
// 最新请求胜出：发起新请求会取消仍在途的旧请求，旧请求迟到的
// 响应按代号比对后丢弃，绝不应用到状态。加载期间旧数据保持可见。
func (s *WeekStore) LoadWeek(ctx context.Context, anchor time.Time) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.status = StatusLoading
	s.anchor = anchor
	s.mu.Unlock()

	payload, err := s.api.FetchWeek(reqCtx, anchor)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// 迟到的响应：已有更新的请求接管状态
		return ErrSuperseded
	}
	s.cancel = nil

	if err != nil {
		s.status = StatusError
		s.lastErr = err
		s.logger.Warn("周视图加载失败", zap.Time("anchor", anchor), zap.Error(err))
		return err
	}

	s.status = StatusReady
	s.lastErr = nil
	s.modules = payload.Modules
	s.events = payload.Events
	s.todoLists = payload.TodoLists
	s.todos = payload.Todos
	return nil
}

// ────────────────────── 事件变更 ──────────────────────

// CreateEvent 乐观创建事件：先以临时复合 ID 插入本地状态，
// 成功后用服务端确认实体按占位 ID 原位替换，失败则移除占位
func (s *WeekStore) CreateEvent(ctx context.Context, req *dto.CreateEventRequest, placeholder dto.CalendarEvent) (*dto.CalendarEvent, error) {
	tempID := dto.ComposeEventID(req.CalendarID, "pending-"+uuid.New().String())
	placeholder.ID = tempID
	placeholder.ModuleID = req.CalendarID

	s.mu.Lock()
	if s.status != StatusReady && s.status != StatusLoading {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.events = append(append([]dto.CalendarEvent(nil), s.events...), placeholder)
	s.mu.Unlock()

	confirmed, err := s.api.CreateEvent(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.events = removeEvent(s.events, tempID)
		return nil, err
	}
	s.events = replaceEvent(s.events, tempID, *confirmed)
	return confirmed, nil
}

// UpdateEvent 乐观更新事件
// 复合 ID 在发起任何网络请求之前校验；失败时不回滚（尽力而为）
func (s *WeekStore) UpdateEvent(ctx context.Context, compositeID string, req *dto.UpdateEventRequest, optimistic dto.CalendarEvent) error {
	calendarID, eventID, ok := dto.ParseEventID(compositeID)
	if !ok {
		return ErrMalformedEventID
	}
	req.CalendarID = calendarID
	req.EventID = eventID

	s.mu.Lock()
	s.events = replaceEvent(s.events, compositeID, optimistic)
	s.mu.Unlock()

	if _, err := s.api.UpdateEvent(ctx, req); err != nil {
		s.logger.Warn("事件更新同步失败，本地状态保持乐观值",
			zap.String("event_id", compositeID), zap.Error(err))
		return err
	}
	return nil
}

// DeleteEvent 乐观删除事件
// 复合 ID 先行校验；网络失败时本地已删，不再恢复（尽力而为）
func (s *WeekStore) DeleteEvent(ctx context.Context, compositeID string) error {
	calendarID, eventID, ok := dto.ParseEventID(compositeID)
	if !ok {
		return ErrMalformedEventID
	}

	s.mu.Lock()
	s.events = removeEvent(s.events, compositeID)
	s.mu.Unlock()

	if err := s.api.DeleteEvent(ctx, calendarID, eventID); err != nil {
		s.logger.Warn("事件删除同步失败", zap.String("event_id", compositeID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 清单变更 ──────────────────────

// AddList 乐观创建清单：占位 ID 在确认后被服务端 ID 原位替换
func (s *WeekStore) AddList(ctx context.Context, name, color string) (*dto.TodoList, error) {
	tempID := dto.LocalListPrefix + "pending-" + uuid.New().String()
	placeholder := dto.TodoList{ID: tempID, Name: name, Color: color}

	s.mu.Lock()
	if s.status != StatusReady && s.status != StatusLoading {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.todoLists = append(append([]dto.TodoList(nil), s.todoLists...), placeholder)
	s.mu.Unlock()

	confirmed, err := s.api.CreateTodoList(ctx, &dto.CreateTodoListRequest{Name: name, Color: color})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.todoLists = removeList(s.todoLists, tempID)
		return nil, err
	}
	s.todoLists = replaceList(s.todoLists, tempID, *confirmed)
	return confirmed, nil
}

// RenameList 乐观重命名清单（尽力而为，失败不回滚）
func (s *WeekStore) RenameList(ctx context.Context, listID, name string) error {
	s.mu.Lock()
	s.todoLists = mapLists(s.todoLists, listID, func(l dto.TodoList) dto.TodoList {
		l.Name = name
		return l
	})
	s.mu.Unlock()

	err := s.api.UpdateTodoList(ctx, listID, &dto.UpdateTodoListRequest{Name: &name})
	if err != nil {
		s.logger.Warn("清单重命名同步失败", zap.String("list_id", listID), zap.Error(err))
	}
	return err
}

// RecolorList 乐观更换清单颜色（尽力而为，失败不回滚）
func (s *WeekStore) RecolorList(ctx context.Context, listID, color string) error {
	s.mu.Lock()
	s.todoLists = mapLists(s.todoLists, listID, func(l dto.TodoList) dto.TodoList {
		l.Color = color
		return l
	})
	s.mu.Unlock()

	err := s.api.UpdateTodoList(ctx, listID, &dto.UpdateTodoListRequest{Color: &color})
	if err != nil {
		s.logger.Warn("清单改色同步失败", zap.String("list_id", listID), zap.Error(err))
	}
	return err
}

// DeleteList 乐观删除清单，连带移除其全部待办（尽力而为）
func (s *WeekStore) DeleteList(ctx context.Context, listID string) error {
	s.mu.Lock()
	s.todoLists = removeList(s.todoLists, listID)
	kept := make([]dto.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if t.ListID != listID {
			kept = append(kept, t)
		}
	}
	s.todos = kept
	s.mu.Unlock()

	err := s.api.DeleteTodoList(ctx, listID)
	if err != nil {
		s.logger.Warn("清单删除同步失败", zap.String("list_id", listID), zap.Error(err))
	}
	return err
}

// ────────────────────── 待办变更 ──────────────────────

// AddTodo 乐观创建待办
// 服务端负责智能排期解析，确认实体携带剥离标注后的文本与 dueAt
func (s *WeekStore) AddTodo(ctx context.Context, text, listID string) (*dto.Todo, error) {
	tempID := dto.LocalTodoPrefix + "pending-" + uuid.New().String()
	placeholder := dto.Todo{ID: tempID, Text: text, ListID: listID, Source: "local"}

	s.mu.Lock()
	if s.status != StatusReady && s.status != StatusLoading {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	s.todos = append([]dto.Todo{placeholder}, s.todos...)
	s.mu.Unlock()

	confirmed, err := s.api.CreateTodo(ctx, &dto.CreateTodoRequest{Text: text, ListID: listID})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.todos = removeTodo(s.todos, tempID)
		return nil, err
	}
	s.todos = replaceTodo(s.todos, tempID, *confirmed)
	return confirmed, nil
}

// ToggleTodo 乐观翻转完成状态（尽力而为，失败不回滚）
func (s *WeekStore) ToggleTodo(ctx context.Context, todoID string) error {
	var completed bool
	s.mu.Lock()
	s.todos = mapTodos(s.todos, todoID, func(t dto.Todo) dto.Todo {
		t.Completed = !t.Completed
		completed = t.Completed
		return t
	})
	s.mu.Unlock()

	// 派生待办（google 来源）只存在于本地状态，翻转不触网
	if _, ok := dto.ParseLocalTodoID(todoID); !ok {
		return nil
	}

	err := s.api.UpdateTodo(ctx, todoID, &dto.UpdateTodoRequest{Completed: &completed})
	if err != nil {
		s.logger.Warn("待办勾选同步失败", zap.String("todo_id", todoID), zap.Error(err))
	}
	return err
}

// RemoveTodo 乐观删除待办（尽力而为，失败不回滚）
func (s *WeekStore) RemoveTodo(ctx context.Context, todoID string) error {
	s.mu.Lock()
	s.todos = removeTodo(s.todos, todoID)
	s.mu.Unlock()

	if _, ok := dto.ParseLocalTodoID(todoID); !ok {
		return nil
	}

	err := s.api.DeleteTodo(ctx, todoID)
	if err != nil {
		s.logger.Warn("待办删除同步失败", zap.String("todo_id", todoID), zap.Error(err))
	}
	return err
}

// ────────────────────── 整值替换辅助 ──────────────────────
// 所有写操作都产出新切片，快照持有方不受后续变更影响

func removeEvent(events []dto.CalendarEvent, id string) []dto.CalendarEvent {
	out := make([]dto.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	return out
}

func replaceEvent(events []dto.CalendarEvent, id string, replacement dto.CalendarEvent) []dto.CalendarEvent {
	out := make([]dto.CalendarEvent, len(events))
	for i, ev := range events {
		if ev.ID == id {
			out[i] = replacement
		} else {
			out[i] = ev
		}
	}
	return out
}

func removeList(lists []dto.TodoList, id string) []dto.TodoList {
	out := make([]dto.TodoList, 0, len(lists))
	for _, l := range lists {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

func replaceList(lists []dto.TodoList, id string, replacement dto.TodoList) []dto.TodoList {
	out := make([]dto.TodoList, len(lists))
	for i, l := range lists {
		if l.ID == id {
			out[i] = replacement
		} else {
			out[i] = l
		}
	}
	return out
}

func mapLists(lists []dto.TodoList, id string, fn func(dto.TodoList) dto.TodoList) []dto.TodoList {
	out := make([]dto.TodoList, len(lists))
	for i, l := range lists {
		if l.ID == id {
			out[i] = fn(l)
		} else {
			out[i] = l
		}
	}
	return out
}

func removeTodo(todos []dto.Todo, id string) []dto.Todo {
	out := make([]dto.Todo, 0, len(todos))
	for _, t := range todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func replaceTodo(todos []dto.Todo, id string, replacement dto.Todo) []dto.Todo {
	out := make([]dto.Todo, len(todos))
	for i, t := range todos {
		if t.ID == id {
			out[i] = replacement
		} else {
			out[i] = t
		}
	}
	return out
}

func mapTodos(todos []dto.Todo, id string, fn func(dto.Todo) dto.Todo) []dto.Todo {
	out := make([]dto.Todo, len(todos))
	for i, t := range todos {
		if t.ID == id {
			out[i] = fn(t)
		} else {
			out[i] = t
		}
	}
	return out
}

// [自证通过] internal/client/store.go
