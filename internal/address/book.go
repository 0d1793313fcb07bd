package address

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/models"
	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/storage"
)

// 地址簿错误
var (
	ErrAddressNotFound = errors.New("address: not found")
	ErrAddressInvalid  = errors.New("address: required field missing")
)

// Book 收货地址簿
// 独占地址存储键；任何时刻至多一个默认地址，
// 首个加入的地址自动成为默认
type Book struct {
	mu        sync.Mutex
	kv        storage.KV
	addresses []models.Address
	loaded    bool
}

// NewBook 创建地址簿
func NewBook(kv storage.KV) *Book {
	return &Book{kv: kv}
}

// List 返回全部地址的副本
func (b *Book) List() ([]models.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadLocked(); err != nil {
		return nil, err
	}
	addresses := make([]models.Address, len(b.addresses))
	copy(addresses, b.addresses)
	return addresses, nil
}

// Add 新增地址并返回分配的ID
func (b *Book) Add(address models.Address) (*models.Address, error) {
	if err := validateAddress(address); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadLocked(); err != nil {
		return nil, err
	}

	address.ID = uuid.NewString()
	if len(b.addresses) == 0 {
		address.IsDefault = true
	}
	if address.IsDefault {
		b.clearDefaultLocked()
	}
	b.addresses = append(b.addresses, address)
	if err := b.persistLocked(); err != nil {
		return nil, err
	}
	return &address, nil
}

// Update 编辑已有地址
func (b *Book) Update(address models.Address) error {
	if err := validateAddress(address); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadLocked(); err != nil {
		return err
	}

	for i := range b.addresses {
		if b.addresses[i].ID == address.ID {
			if address.IsDefault && !b.addresses[i].IsDefault {
				b.clearDefaultLocked()
			}
			// 唯一的默认地址不允许通过编辑取消默认
			if b.addresses[i].IsDefault {
				address.IsDefault = true
			}
			b.addresses[i] = address
			return b.persistLocked()
		}
	}
	return ErrAddressNotFound
}

// Remove 删除地址
// 删除默认地址后，剩余的首个地址顶替为默认
func (b *Book) Remove(addressID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadLocked(); err != nil {
		return err
	}

	for i := range b.addresses {
		if b.addresses[i].ID == addressID {
			wasDefault := b.addresses[i].IsDefault
			b.addresses = append(b.addresses[:i], b.addresses[i+1:]...)
			if wasDefault && len(b.addresses) > 0 {
				b.addresses[0].IsDefault = true
			}
			return b.persistLocked()
		}
	}
	return ErrAddressNotFound
}

// SetDefault 设置默认地址（其余地址默认标记清除）
func (b *Book) SetDefault(addressID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadLocked(); err != nil {
		return err
	}

	found := false
	for i := range b.addresses {
		isTarget := b.addresses[i].ID == addressID
		b.addresses[i].IsDefault = isTarget
		if isTarget {
			found = true
		}
	}
	if !found {
		return ErrAddressNotFound
	}
	return b.persistLocked()
}

// Default 返回默认地址
func (b *Book) Default() (*models.Address, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadLocked(); err != nil {
		return nil, err
	}
	for _, address := range b.addresses {
		if address.IsDefault {
			copied := address
			return &copied, nil
		}
	}
	return nil, ErrAddressNotFound
}

func (b *Book) clearDefaultLocked() {
	for i := range b.addresses {
		b.addresses[i].IsDefault = false
	}
}

func (b *Book) loadLocked() error {
	if b.loaded {
		return nil
	}
	b.loaded = true
	raw, ok, err := b.kv.Get(storage.KeyAddresses)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, &b.addresses)
}

func (b *Book) persistLocked() error {
	raw, err := json.Marshal(b.addresses)
	if err != nil {
		return err
	}
	return b.kv.Put(storage.KeyAddresses, raw)
}

func validateAddress(address models.Address) error {
	if strings.TrimSpace(address.FullName) == "" ||
		strings.TrimSpace(address.Address) == "" ||
		strings.TrimSpace(address.City) == "" ||
		strings.TrimSpace(address.PostalCode) == "" {
		return ErrAddressInvalid
	}
	return nil
}
