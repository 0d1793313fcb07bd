package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/catalog"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/logger"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/pricing"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/storage"
)

// Store 本地（游客）购物车存储
// 内存状态为会话内权威数据；每次变更后以精简形态
// [{productId, quantity}] 落盘，展示字段加载时从目录回填
type Store struct {
	mu sync.Mutex
	kv storage.KV

	lines     []models.CartLine
	itemCount int
	total     models.Money
}

// NewStore 创建本地购物车存储
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv, total: models.ZeroMoney()}
}

// Add 加入商品
// 已有行项合并数量，新行项以当前售价做快照；数量非正时不做任何事
func (s *Store) Add(product *models.Product, quantity int) {
	if product == nil || quantity <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == product.ID {
			s.lines[i].Quantity += quantity
			s.lines[i].LineTotal = pricing.LineTotal(s.lines[i].UnitPrice, s.lines[i].Quantity)
			s.recomputeAndPersistLocked()
			return
		}
	}

	s.lines = append(s.lines, models.CartLine{
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		LineTotal: pricing.LineTotal(product.Price, quantity),
		Name:      product.Name,
		Image:     product.Image,
		Slug:      product.Slug,
	})
	s.recomputeAndPersistLocked()
}

// Remove 删除行项（不存在时不报错）
func (s *Store) Remove(productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(productID)
}

// UpdateQuantity 更新行项数量
// 数量 <= 0 等价于删除；商品不在购物车中时不做任何事
func (s *Store) UpdateQuantity(productID uint, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
		return
	}
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = quantity
			s.lines[i].LineTotal = pricing.LineTotal(s.lines[i].UnitPrice, quantity)
			s.recomputeAndPersistLocked()
			return
		}
	}
}

// Clear 清空购物车
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.recomputeAndPersistLocked()
}

// Snapshot 返回当前购物车聚合的副本
func (s *Store) Snapshot() models.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	return models.Cart{
		Realm:     models.CartRealmLocal,
		Lines:     lines,
		ItemCount: s.itemCount,
		Total:     s.total,
	}
}

// IsEmpty 购物车是否为空
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// PersistedLines 返回精简行项（同步到服务端时使用）
func (s *Store) PersistedLines() []models.PersistedCartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leanLinesLocked()
}

// Load 从存储恢复购物车并用目录回填展示字段
// 目录中已不存在（或已下架）的商品被静默丢弃
func (s *Store) Load(ctx context.Context, productCatalog catalog.Catalog) error {
	raw, ok, err := s.kv.Get(storage.KeyCart)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var persisted []models.PersistedCartLine
	if err := json.Unmarshal(raw, &persisted); err != nil {
		logger.Warnw("cart_record_invalid", "error", err)
		return nil
	}

	lines := make([]models.CartLine, 0, len(persisted))
	for _, lean := range persisted {
		if lean.Quantity <= 0 {
			continue
		}
		product, err := productCatalog.GetByID(ctx, lean.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			continue
		}
		lines = append(lines, models.CartLine{
			ProductID: product.ID,
			Quantity:  lean.Quantity,
			UnitPrice: product.Price,
			LineTotal: pricing.LineTotal(product.Price, lean.Quantity),
			Name:      product.Name,
			Image:     product.Image,
			Slug:      product.Slug,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = lines
	s.itemCount, s.total = pricing.Aggregate(s.lines)
	return nil
}

// RemoveSynced 扣减已成功并入服务端的快照数量
// 同步期间新加入的行项或数量不在快照内，原样保留在本地，
// 等待下一次同步触发
func (s *Store) RemoveSynced(synced []models.PersistedCartLine) {
	if len(synced) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	quantities := make(map[uint]int, len(synced))
	for _, lean := range synced {
		quantities[lean.ProductID] += lean.Quantity
	}

	remaining := s.lines[:0]
	for _, line := range s.lines {
		line.Quantity -= quantities[line.ProductID]
		if line.Quantity <= 0 {
			continue
		}
		line.LineTotal = pricing.LineTotal(line.UnitPrice, line.Quantity)
		remaining = append(remaining, line)
	}
	s.lines = remaining
	s.recomputeAndPersistLocked()
}

func (s *Store) removeLocked(productID uint) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.recomputeAndPersistLocked()
			return
		}
	}
}

// recomputeAndPersistLocked 重算派生字段并尽力落盘
// 写盘失败只记日志，内存状态在本会话内仍然权威
func (s *Store) recomputeAndPersistLocked() {
	s.itemCount, s.total = pricing.Aggregate(s.lines)

	raw, err := json.Marshal(s.leanLinesLocked())
	if err != nil {
		logger.Warnw("cart_encode_failed", "error", err)
		return
	}
	if err := s.kv.Put(storage.KeyCart, raw); err != nil {
		logger.Warnw("cart_persist_failed", "error", err)
	}
}

func (s *Store) leanLinesLocked() []models.PersistedCartLine {
	lean := make([]models.PersistedCartLine, 0, len(s.lines))
	for _, line := range s.lines {
		lean = append(lean, models.PersistedCartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return lean
}
