package storage

import (
	"errors"
	"time"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record 键值记录表
type Record struct {
	Key       string    `gorm:"primarykey;type:varchar(128)"` // 键名
	Value     []byte    `gorm:"not null"`                     // 序列化内容
	UpdatedAt time.Time `gorm:"index"`                        // 更新时间
}

// TableName 指定表名
func (Record) TableName() string {
	return "client_storage"
}

// GormKV 基于 SQLite 的持久化键值存储
type GormKV struct {
	db *gorm.DB
}

// OpenGormKV 打开（必要时创建）本地存储库
func OpenGormKV(dsn string) (*GormKV, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &GormKV{db: db}, nil
}

// NewGormKV 复用已有连接创建存储
func NewGormKV(db *gorm.DB) (*GormKV, error) {
	if db == nil {
		return nil, errors.New("storage: db is nil")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &GormKV{db: db}, nil
}

// Get 读取键值
func (s *GormKV) Get(key string) ([]byte, bool, error) {
	var record Record
	err := s.db.Where("key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return record.Value, true, nil
}

// Put 写入键值
func (s *GormKV) Put(key string, value []byte) error {
	record := Record{Key: key, Value: value, UpdatedAt: time.Now()}
	var existing Record
	err := s.db.Where("key = ?", key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&record).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&Record{}).Where("key = ?", key).Updates(map[string]interface{}{
		"value":      value,
		"updated_at": record.UpdatedAt,
	}).Error
}

// Delete 删除键值（键不存在时不报错）
func (s *GormKV) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&Record{}).Error
}
