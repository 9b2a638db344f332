package user

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/CarSave/CarSave/internal/common/config"
	"github.com/CarSave/CarSave/internal/common/middleware"
)

const jscode2sessionURL = "https://api.weixin.qq.com/sns/jscode2session"

// SessionProvider 把小程序登录 code 换成 openid。
type SessionProvider interface {
	Code2Session(ctx context.Context, code string) (openID string, err error)
}

// WechatClient 调微信 jscode2session 接口，外部依赖走熔断器。
type WechatClient struct {
	cfg     config.WechatConfig
	http    *http.Client
	breaker *middleware.CircuitBreaker
}

func NewWechatClient(cfg config.WechatConfig) *WechatClient {
	return &WechatClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: 5 * time.Second},
		breaker: middleware.NewCircuitBreaker("wechat-jscode2session", 5, 30*time.Second),
	}
}

type jscode2sessionResponse struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
	ErrCode    int    `json:"errcode"`
	ErrMsg     string `json:"errmsg"`
}

func (c *WechatClient) Code2Session(ctx context.Context, code string) (string, error) {
	if c.cfg.AppID == "" || c.cfg.AppSecret == "" {
		return "", fmt.Errorf("wechat app_id/app_secret not configured")
	}

	var openID string
	err := c.breaker.Call(ctx, func() error {
		q := url.Values{}
		q.Set("appid", c.cfg.AppID)
		q.Set("secret", c.cfg.AppSecret)
		q.Set("js_code", code)
		q.Set("grant_type", "authorization_code")

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, jscode2sessionURL+"?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		var out jscode2sessionResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return fmt.Errorf("decode jscode2session response: %w", err)
		}
		// 微信成功时不回 errcode 字段
		if out.ErrCode != 0 {
			return fmt.Errorf("jscode2session errcode=%d: %s", out.ErrCode, out.ErrMsg)
		}
		if out.OpenID == "" {
			return fmt.Errorf("jscode2session returned empty openid")
		}
		openID = out.OpenID
		return nil
	})
	if err != nil {
		return "", err
	}
	return openID, nil
}
