package cart

import (
	"context"
	"sync"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/api"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/logger"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
)

// Synchronizer 游客购物车并入服务端购物车的一次性同步器
// mu 同时是合并护栏：合并期间到来的触发会排队，排到后因本地
// 购物车已空而不再发起网络调用（触发条件即去重条件）
type Synchronizer struct {
	mu     sync.Mutex
	local  *Store
	remote *api.CartClient
}

// NewSynchronizer 创建购物车同步器
func NewSynchronizer(local *Store, remote *api.CartClient) *Synchronizer {
	return &Synchronizer{local: local, remote: remote}
}

// Sync 将本地购物车整单并入服务端
// 仅在本地购物车非空时发起调用；失败时本地购物车原样保留，
// 可在下一次认证检查时重试。返回服务端回传的权威购物车
// 成功后只扣减发出的快照：请求在途期间加入的行项留在本地，
// 由下一次触发继续并入，不会被静默丢弃
func (s *Synchronizer) Sync(ctx context.Context) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.local.PersistedLines()
	if len(lines) == 0 {
		return nil, nil
	}

	remoteCart, err := s.remote.Replace(ctx, lines)
	if err != nil {
		logger.Warnw("cart_sync_failed", "lines", len(lines), "error", err)
		return nil, err
	}

	s.local.RemoveSynced(lines)
	logger.Infow("cart_sync_merged", "lines", len(lines))
	return remoteCart, nil
}
