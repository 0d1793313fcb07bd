package token

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/logger"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/storage"
)

// 过期判定提前量，避免临界令牌在途中失效
const expirySkew = 30 * time.Second

// Pair 令牌对（含过期时间）
type Pair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// refreshRequest 换发请求体
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// refreshResponse 换发响应体
type refreshResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Manager 令牌管理器
// 独占令牌存储键；换发经 singleflight 合并，并发观察到过期的调用
// 只会触发一次 /auth/refresh
type Manager struct {
	kv        storage.KV
	transport *api.Transport // 匿名传输，仅用于换发

	mu     sync.RWMutex
	pair   *Pair
	loaded bool
	group  singleflight.Group
}

// NewManager 创建令牌管理器
func NewManager(kv storage.KV, transport *api.Transport) *Manager {
	return &Manager{kv: kv, transport: transport}
}

// SetPair 写入令牌对（登录成功后调用）
func (m *Manager) SetPair(pair Pair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = &pair
	m.loaded = true
	return m.persistLocked()
}

// Clear 清除全部令牌（登出或换发终态失败）
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pair = nil
	m.loaded = true
	if err := m.kv.Delete(storage.KeyTokens); err != nil {
		logger.Warnw("token_clear_persist_failed", "error", err)
	}
}

// Authenticated 当前是否持有会话令牌
func (m *Manager) Authenticated() bool {
	pair := m.current()
	return pair != nil && strings.TrimSpace(pair.AccessToken) != ""
}

// Token 返回可用访问令牌；已过期则先换发
// 无会话时返回空串，由调用方匿名发出请求
func (m *Manager) Token(ctx context.Context) (string, error) {
	pair := m.current()
	if pair == nil || pair.AccessToken == "" {
		return "", nil
	}
	if !expired(pair) {
		return pair.AccessToken, nil
	}
	return m.refresh(ctx)
}

// ForceRefresh 强制换发（传输层收到 401 后调用一次）
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	return m.refresh(ctx)
}

// refresh 单飞换发：并发调用共享同一次网络请求
func (m *Manager) refresh(ctx context.Context) (string, error) {
	result, err, _ := m.group.Do("refresh", func() (interface{}, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	pair := m.current()
	if pair == nil || strings.TrimSpace(pair.RefreshToken) == "" {
		return "", api.NewError(api.KindAuth, 0, "", "no refresh token", nil)
	}

	var response refreshResponse
	err := m.transport.Do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: pair.RefreshToken}, &response)
	if err != nil {
		// 仅认证类失败视为终态：清空令牌并降级会话
		if api.IsAuth(err) || api.IsKind(err, api.KindValidation) {
			logger.Warnw("token_refresh_rejected", "error", err)
			m.Clear()
			return "", api.NewError(api.KindAuth, 0, "", "session expired", err)
		}
		return "", err
	}
	if strings.TrimSpace(response.AccessToken) == "" {
		m.Clear()
		return "", api.NewError(api.KindAuth, 0, "", "refresh returned empty token", nil)
	}

	newPair := Pair{
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
		ExpiresAt:    response.ExpiresAt,
	}
	if newPair.RefreshToken == "" {
		newPair.RefreshToken = pair.RefreshToken
	}
	if err := m.SetPair(newPair); err != nil {
		logger.Warnw("token_refresh_persist_failed", "error", err)
	}
	return newPair.AccessToken, nil
}

// current 返回当前令牌对（首次访问时从存储加载）
func (m *Manager) current() *Pair {
	m.mu.RLock()
	if m.loaded {
		pair := m.pair
		m.mu.RUnlock()
		return pair
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return m.pair
	}
	m.loaded = true
	raw, ok, err := m.kv.Get(storage.KeyTokens)
	if err != nil {
		logger.Warnw("token_load_failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}
	var pair Pair
	if err := json.Unmarshal(raw, &pair); err != nil {
		logger.Warnw("token_record_invalid", "error", err)
		return nil
	}
	m.pair = &pair
	return m.pair
}

func (m *Manager) persistLocked() error {
	if m.pair == nil {
		return m.kv.Delete(storage.KeyTokens)
	}
	raw, err := json.Marshal(m.pair)
	if err != nil {
		return err
	}
	return m.kv.Put(storage.KeyTokens, raw)
}

// expired 判断访问令牌是否已过期
// 优先使用存储的过期时间，缺失时回退解析 JWT exp 声明
func expired(pair *Pair) bool {
	expiresAt := pair.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = expiryFromJWT(pair.AccessToken)
	}
	if expiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expirySkew).After(expiresAt)
}

// expiryFromJWT 不验签解析 exp 声明（签名由服务端校验）
func expiryFromJWT(tokenString string) time.Time {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return time.Time{}
	}
	expiresAt, err := claims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return time.Time{}
	}
	return expiresAt.Time
}
