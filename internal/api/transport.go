package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/logger"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultAttempts    = 3
	defaultBackoffStep = 500 * time.Millisecond
)

// TokenSource 访问令牌提供方
// Token 返回当前可用令牌（过期时内部刷新），无会话时返回空串
// ForceRefresh 在服务端返回 401 后强制换发一次
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// TransportOptions 传输层配置
type TransportOptions struct {
	BaseURL     string
	Timeout     time.Duration
	Attempts    int
	BackoffStep time.Duration
	Tokens      TokenSource  // 为 nil 时所有请求匿名发出
	HTTPClient  *http.Client // 为 nil 时按 Timeout 创建
}

// Transport HTTP 传输层
// 统一负责鉴权头、超时、重试与错误归类
type Transport struct {
	baseURL     string
	client      *http.Client
	attempts    int
	backoffStep time.Duration
	tokens      TokenSource
}

// NewTransport 创建传输层
func NewTransport(options TransportOptions) (*Transport, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(options.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api: base url is required")
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := options.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoffStep := options.BackoffStep
	if backoffStep <= 0 {
		backoffStep = defaultBackoffStep
	}
	client := options.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Transport{
		baseURL:     baseURL,
		client:      client,
		attempts:    attempts,
		backoffStep: backoffStep,
		tokens:      options.Tokens,
	}, nil
}

// errorBody 服务端错误响应体
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Do 发送 JSON 请求并解码响应
// 仅网络/5xx 类错误按线性退避重试，401 只做一次换发重试，其余 4xx 直接失败
func (t *Transport) Do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return NewError(KindValidation, 0, "", "encode request body failed", err)
		}
		payload = encoded
	}

	refreshed := false
	var lastErr error
	for attempt := 1; attempt <= t.attempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, time.Duration(attempt-1)*t.backoffStep); err != nil {
				return NewError(KindNetwork, 0, "", "request canceled", err)
			}
		}

		retry, err := t.doOnce(ctx, method, path, payload, out, &refreshed)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
		logger.Warnw("api_request_retry", "method", method, "path", path, "attempt", attempt, "error", err)
	}
	return lastErr
}

// doOnce 单次请求；返回是否允许计入重试
func (t *Transport) doOnce(ctx context.Context, method, path string, payload []byte, out interface{}, refreshed *bool) (bool, error) {
	request, err := t.newRequest(ctx, method, path, payload)
	if err != nil {
		return false, err
	}

	response, err := t.client.Do(request)
	if err != nil {
		return true, NewError(KindNetwork, 0, "", "request failed", err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusUnauthorized && t.tokens != nil && !*refreshed {
		*refreshed = true
		if _, refreshErr := t.tokens.ForceRefresh(ctx); refreshErr != nil {
			return false, NewError(KindAuth, response.StatusCode, "", "session expired", refreshErr)
		}
		// 换发成功后立即原样重放一次
		return t.doOnce(ctx, method, path, payload, out, refreshed)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if out == nil || response.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, response.Body)
			return false, nil
		}
		raw, err := io.ReadAll(response.Body)
		if err != nil {
			return true, NewError(KindNetwork, response.StatusCode, "", "read response failed", err)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return false, NewError(KindServer, response.StatusCode, "", "decode response failed", err)
		}
		return false, nil
	}

	return classifyStatus(response)
}

func (t *Transport) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return nil, NewError(KindValidation, 0, "", "build request failed", err)
	}
	request.Header.Set("Accept", "application/json")
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if t.tokens != nil {
		token, err := t.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		if token != "" {
			request.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return request, nil
}

// classifyStatus 将非 2xx 响应归类为类型化错误
func classifyStatus(response *http.Response) (bool, error) {
	raw, _ := io.ReadAll(response.Body)
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	message := strings.TrimSpace(body.Message)
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", response.StatusCode)
	}

	status := response.StatusCode
	switch {
	case status >= 500:
		return true, NewError(KindServer, status, body.Code, message, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return false, NewError(KindAuth, status, body.Code, message, nil)
	case status == http.StatusNotFound:
		return false, NewError(KindNotFound, status, body.Code, message, nil)
	case status == http.StatusConflict:
		return false, NewError(KindConflict, status, body.Code, message, nil)
	default:
		return false, NewError(KindValidation, status, body.Code, message, nil)
	}
}

func sleepContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
