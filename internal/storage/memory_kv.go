package storage

import "sync"

// MemoryKV 内存键值存储（测试与临时会话用）
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailPuts 为 true 时写入返回 ErrPutFailed，用于测试持久化失败路径
	FailPuts bool
}

// ErrPutFailed 写入失败（仅 MemoryKV 注入用）
var ErrPutFailed = errFailedPut{}

type errFailedPut struct{}

func (errFailedPut) Error() string { return "storage: put failed" }

// NewMemoryKV 创建内存键值存储
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get 读取键值
func (s *MemoryKV) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, true, nil
}

// Put 写入键值
func (s *MemoryKV) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts {
		return ErrPutFailed
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	s.data[key] = copied
	return nil
}

// Delete 删除键值
func (s *MemoryKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}
