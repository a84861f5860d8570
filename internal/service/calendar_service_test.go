package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yodering/nook/internal/google"
	"github.com/yodering/nook/internal/model"
)

func setupTestCalendarService(gw *mockGateway) (CalendarService, *mockOverrideRepo, *mockSettingsRepo) {
	repo, _, _, overrides, settings := newTestRepository()
	svc := NewCalendarService(repo, gw, &stubTokenService{token: "test-token"}, zap.NewNop())
	return svc, overrides, settings
}

func strPtr(s string) *string { return &s }

// ── 覆盖合并 ──

func TestMergeModules_HiddenFiltered(t *testing.T) {
	calendars := []google.CalendarListItem{
		{ID: "cal-a", Summary: "Work", BackgroundColor: "#111111"},
		{ID: "cal-b", Summary: "Home", BackgroundColor: "#222222"},
	}
	overrides := []model.CalendarOverride{
		{UserID: "u1", CalendarID: "cal-b", Hidden: true},
	}

	modules := mergeModules(calendars, overrides)

	if len(modules) != 1 {
		t.Fatalf("期望1个模块，实际=%d", len(modules))
	}
	if modules[0].ID != "cal-a" {
		t.Errorf("期望cal-a保留，实际=%s", modules[0].ID)
	}
}

func TestMergeModules_Precedence(t *testing.T) {
	calendars := []google.CalendarListItem{
		{ID: "cal-a", Summary: "Work", BackgroundColor: "#111111"},
		{ID: "cal-b", Summary: "Home"},
		{ID: "cal-c"},
	}
	overrides := []model.CalendarOverride{
		{CalendarID: "cal-a", DisplayName: strPtr("Office"), Color: strPtr("#abcdef")},
	}

	modules := mergeModules(calendars, overrides)

	byID := map[string]int{}
	for i, m := range modules {
		byID[m.ID] = i
	}

	// 覆盖优先
	if m := modules[byID["cal-a"]]; m.Name != "Office" || m.Color != "#abcdef" {
		t.Errorf("期望覆盖名称/颜色生效，实际=%+v", m)
	}
	// Google 元数据次之
	if m := modules[byID["cal-b"]]; m.Name != "Home" {
		t.Errorf("期望Name=Home，实际=%s", m.Name)
	}
	// 双缺失时托底
	fallback := modules[byID["cal-c"]]
	if fallback.Name != "untitled" {
		t.Errorf("期望Name=untitled，实际=%s", fallback.Name)
	}
	if !strings.HasPrefix(fallback.Color, "#") {
		t.Errorf("期望托底颜色为十六进制，实际=%s", fallback.Color)
	}
}

func TestMergeModules_Ordering(t *testing.T) {
	calendars := []google.CalendarListItem{
		{ID: "cal-z", Summary: "Zebra"},
		{ID: "cal-a", Summary: "Alpha"},
		{ID: "cal-p", Summary: "Pinned"},
		{ID: "cal-s", Summary: "Sorted"},
	}
	overrides := []model.CalendarOverride{
		{CalendarID: "cal-p", Pinned: true, SortOrder: 99},
		{CalendarID: "cal-s", SortOrder: -5},
	}

	modules := mergeModules(calendars, overrides)

	// 置顶最先（即使 sortOrder 很大），其次按 sortOrder，再按名称字典序
	want := []string{"cal-p", "cal-s", "cal-a", "cal-z"}
	for i, id := range want {
		if modules[i].ID != id {
			t.Fatalf("期望第%d位是%s，实际=%s", i, id, modules[i].ID)
		}
	}
}

func TestMergeModules_Idempotent(t *testing.T) {
	calendars := []google.CalendarListItem{
		{ID: "cal-b", Summary: "Same"},
		{ID: "cal-a", Summary: "Same"},
		{ID: "cal-c", Summary: "Same"},
	}
	var overrides []model.CalendarOverride

	first := mergeModules(calendars, overrides)
	second := mergeModules(calendars, overrides)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("期望两次合并结果一致，实际 first=%v second=%v", first, second)
	}
}

// ── 事件分类与钳制 ──

func TestToCalendarEvent_CrossMidnightClamped(t *testing.T) {
	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := google.Event{
		ID:      "ev-1",
		Summary: "late night",
		Start:   &google.EventTime{DateTime: "2024-01-01T23:00:00Z"},
		End:     &google.EventTime{DateTime: "2024-01-02T00:30:00Z"},
	}

	ev := toCalendarEvent(raw, "cal-a", weekStart, time.UTC)
	if ev == nil {
		t.Fatal("期望归类为定时事件，实际为 nil")
	}
	if ev.EndHour != 23 || ev.EndMinute != 59 {
		t.Errorf("期望跨天事件截断到23:59，实际=%02d:%02d", ev.EndHour, ev.EndMinute)
	}
}

func TestToCalendarEvent_MinimumDuration(t *testing.T) {
	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := google.Event{
		ID:    "ev-2",
		Start: &google.EventTime{DateTime: "2024-01-03T10:00:00Z"},
		End:   &google.EventTime{DateTime: "2024-01-03T10:05:00Z"},
	}

	ev := toCalendarEvent(raw, "cal-a", weekStart, time.UTC)
	if ev == nil {
		t.Fatal("期望归类为定时事件，实际为 nil")
	}
	if ev.EndHour != 10 || ev.EndMinute != 30 {
		t.Errorf("期望时长触底30分钟，实际=%02d:%02d", ev.EndHour, ev.EndMinute)
	}
	if ev.Title != "untitled event" {
		t.Errorf("期望空标题托底，实际=%s", ev.Title)
	}
}

func TestToCalendarEvent_OutsideWindowDropped(t *testing.T) {
	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := google.Event{
		ID:    "ev-3",
		Start: &google.EventTime{DateTime: "2024-01-09T10:00:00Z"},
		End:   &google.EventTime{DateTime: "2024-01-09T11:00:00Z"},
	}

	if ev := toCalendarEvent(raw, "cal-a", weekStart, time.UTC); ev != nil {
		t.Errorf("期望窗口外事件被丢弃，实际=%+v", ev)
	}
}

func TestToDerivedTodo_AllDayEvent(t *testing.T) {
	weekStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := google.Event{
		ID:      "ev-4",
		Summary: "submit report",
		Start:   &google.EventTime{Date: "2024-01-04"},
	}

	todo := toDerivedTodo(raw, "cal-a", weekStart, time.UTC)
	if todo == nil {
		t.Fatal("期望合成派生待办，实际为 nil")
	}
	if todo.ID != "todo-cal-a-ev-4" {
		t.Errorf("期望ID=todo-cal-a-ev-4，实际=%s", todo.ID)
	}
	if todo.ListID != "list-cal-a" {
		t.Errorf("期望ListID=list-cal-a，实际=%s", todo.ListID)
	}
	if todo.Source != "google" {
		t.Errorf("期望Source=google，实际=%s", todo.Source)
	}
}

// ── 周窗口 ──

func TestStartOfISOWeek(t *testing.T) {
	// 2024-01-04 是周四，所在周的周一是 2024-01-01
	thursday := time.Date(2024, 1, 4, 15, 30, 0, 0, time.UTC)
	got := startOfISOWeek(thursday)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("期望%v，实际=%v", want, got)
	}

	// 周一自身不回退
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := startOfISOWeek(monday); !got.Equal(want) {
		t.Errorf("期望%v，实际=%v", want, got)
	}

	// 周日归属前一个周一
	sunday := time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC)
	if got := startOfISOWeek(sunday); !got.Equal(want) {
		t.Errorf("期望%v，实际=%v", want, got)
	}
}

// ── 周载荷聚合 ──

func TestWeekPayload_AssemblesAndSorts(t *testing.T) {
	gw := newMockGateway()
	gw.calendars = []google.CalendarListItem{
		{ID: "cal-a", Summary: "Work", BackgroundColor: "#111111"},
		{ID: "cal-b", Summary: "Home", BackgroundColor: "#222222"},
	}
	gw.events["cal-a"] = []google.Event{
		{
			ID:      "late",
			Summary: "afternoon",
			Start:   &google.EventTime{DateTime: "2024-01-02T14:00:00Z"},
			End:     &google.EventTime{DateTime: "2024-01-02T15:00:00Z"},
		},
		{ID: "allday", Summary: "errand", Start: &google.EventTime{Date: "2024-01-03"}},
		{ID: "gone", Status: "cancelled", Start: &google.EventTime{DateTime: "2024-01-02T08:00:00Z"}, End: &google.EventTime{DateTime: "2024-01-02T09:00:00Z"}},
	}
	gw.events["cal-b"] = []google.Event{
		{
			ID:      "early",
			Summary: "morning",
			Start:   &google.EventTime{DateTime: "2024-01-02T09:00:00Z"},
			End:     &google.EventTime{DateTime: "2024-01-02T10:00:00Z"},
		},
	}

	svc, _, _ := setupTestCalendarService(gw)

	payload, err := svc.WeekPayload(context.Background(), "u1", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}

	if len(payload.Modules) != 2 {
		t.Fatalf("期望2个模块，实际=%d", len(payload.Modules))
	}
	// 每个模块一个镜像清单
	if len(payload.TodoLists) != 2 {
		t.Fatalf("期望2个镜像清单，实际=%d", len(payload.TodoLists))
	}
	if payload.TodoLists[0].ID != "list-"+payload.Modules[0].ID {
		t.Errorf("期望镜像清单ID带list-前缀，实际=%s", payload.TodoLists[0].ID)
	}

	// 取消的事件被丢弃；剩余事件跨日历按开始时间排序
	if len(payload.Events) != 2 {
		t.Fatalf("期望2个定时事件，实际=%d", len(payload.Events))
	}
	if payload.Events[0].ID != "cal-b:early" || payload.Events[1].ID != "cal-a:late" {
		t.Errorf("期望按开始时间排序[early,late]，实际=[%s,%s]", payload.Events[0].ID, payload.Events[1].ID)
	}

	if len(payload.Todos) != 1 || payload.Todos[0].ID != "todo-cal-a-allday" {
		t.Fatalf("期望1个派生待办todo-cal-a-allday，实际=%v", payload.Todos)
	}
}

func TestWeekPayload_FailClosed(t *testing.T) {
	gw := newMockGateway()
	gw.calendars = []google.CalendarListItem{
		{ID: "cal-a", Summary: "Work"},
		{ID: "cal-b", Summary: "Home"},
	}
	gw.events["cal-a"] = []google.Event{
		{
			ID:    "ok",
			Start: &google.EventTime{DateTime: "2024-01-02T09:00:00Z"},
			End:   &google.EventTime{DateTime: "2024-01-02T10:00:00Z"},
		},
	}
	boom := errors.New("rate limited")
	gw.failCalendars["cal-b"] = boom

	svc, _, _ := setupTestCalendarService(gw)

	_, err := svc.WeekPayload(context.Background(), "u1", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("期望单日历失败导致整体失败，实际成功")
	}
	if !errors.Is(err, boom) {
		t.Errorf("期望包裹原始错误，实际: %v", err)
	}
}

func TestWeekPayload_TokenError(t *testing.T) {
	repo, _, _, _, _ := newTestRepository()
	svc := NewCalendarService(repo, newMockGateway(), &stubTokenService{err: ErrReauthRequired}, zap.NewNop())

	_, err := svc.WeekPayload(context.Background(), "u1", time.Now())
	if !errors.Is(err, ErrReauthRequired) {
		t.Errorf("期望 ErrReauthRequired，实际: %v", err)
	}
}

// ── ICS 导出 ──

func TestExportWeekICS(t *testing.T) {
	gw := newMockGateway()
	gw.calendars = []google.CalendarListItem{{ID: "cal-a", Summary: "Work"}}
	gw.events["cal-a"] = []google.Event{
		{
			ID:      "ev-1",
			Summary: "planning",
			Start:   &google.EventTime{DateTime: "2024-01-02T09:00:00Z"},
			End:     &google.EventTime{DateTime: "2024-01-02T10:00:00Z"},
		},
	}

	svc, _, _ := setupTestCalendarService(gw)

	out, err := svc.ExportWeekICS(context.Background(), "u1", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("期望成功，实际: %v", err)
	}
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "END:VCALENDAR") {
		t.Error("期望输出为完整 VCALENDAR")
	}
	if !strings.Contains(out, "SUMMARY:planning") {
		t.Errorf("期望包含事件摘要，实际输出:\n%s", out)
	}
}

// [自证通过] internal/service/calendar_service_test.go
