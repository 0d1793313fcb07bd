package cart

import (
	"context"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
)

// AuthState 会话认证状态
type AuthState interface {
	Authenticated() bool
}

// Manager 购物车门面
// 按认证状态在本地与服务端两个归属域之间选择权威数据源：
// 未认证时本地购物车权威；认证后先完成一次合并，服务端购物车权威
type Manager struct {
	local  *Store
	remote *api.CartClient
	sync   *Synchronizer
	auth   AuthState
}

// NewManager 创建购物车门面
func NewManager(local *Store, remote *api.CartClient, synchronizer *Synchronizer, auth AuthState) *Manager {
	return &Manager{local: local, remote: remote, sync: synchronizer, auth: auth}
}

// Local 本地购物车存储
func (m *Manager) Local() *Store {
	return m.local
}

// ActiveCart 返回当前权威购物车
// 认证会话先排队等待合并完成，再取服务端状态，
// 保证合并期间的本地变更不会被覆盖丢失
func (m *Manager) ActiveCart(ctx context.Context) (*models.Cart, error) {
	if !m.auth.Authenticated() {
		snapshot := m.local.Snapshot()
		return &snapshot, nil
	}

	if merged, err := m.sync.Sync(ctx); err != nil {
		return nil, err
	} else if merged != nil {
		return merged, nil
	}
	return m.remote.Fetch(ctx)
}

// ClearActive 清空当前权威购物车
func (m *Manager) ClearActive(ctx context.Context) error {
	if !m.auth.Authenticated() {
		m.local.Clear()
		return nil
	}
	return m.remote.Clear(ctx)
}
