package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/marianareyesgonzalez4/boton-magico-creador-sub000/internal/logger"

	"github.com/spf13/viper"
)

// Config 客户端配置结构
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Display  DisplayConfig  `mapstructure:"display"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig 远端接口配置
type APIConfig struct {
	BaseURL       string `mapstructure:"base_url"`       // 接口基础地址
	TimeoutMS     int    `mapstructure:"timeout_ms"`     // 单次请求超时（毫秒）
	RetryAttempts int    `mapstructure:"retry_attempts"` // 重试次数预算
	BackoffMS     int    `mapstructure:"backoff_ms"`     // 线性退避步长（毫秒）
}

// Timeout 请求超时
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Backoff 退避步长
func (c APIConfig) Backoff() time.Duration {
	return time.Duration(c.BackoffMS) * time.Millisecond
}

// StorageConfig 本地持久化配置
type StorageConfig struct {
	DSN      string `mapstructure:"dsn"`       // SQLite 文件路径
	InMemory bool   `mapstructure:"in_memory"` // 为 true 时使用内存存储（不落盘）
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	TaxRate float64 `mapstructure:"tax_rate"` // 税率（小计的固定比例）
}

// DisplayConfig 展示配置
type DisplayConfig struct {
	Locale string `mapstructure:"locale"` // 金额展示区域
}

// LogConfig 日志配置
type LogConfig struct {
	Mode       string `mapstructure:"mode"` // debug / release
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// Load 从 client.yml 加载配置
func Load() *Config {
	viper.SetConfigName("client")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./etc")

	viper.SetDefault("api.base_url", "https://api.example.com/api/v1")
	viper.SetDefault("api.timeout_ms", 10000)
	viper.SetDefault("api.retry_attempts", 3)
	viper.SetDefault("api.backoff_ms", 500)
	viper.SetDefault("storage.dsn", "./storefront.db")
	viper.SetDefault("storage.in_memory", false)
	viper.SetDefault("checkout.tax_rate", 0.19)
	viper.SetDefault("display.locale", "es-CO")
	viper.SetDefault("log.mode", "release")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "storefront.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)

	// 环境变量支持（api.base_url -> STOREFRONT_API_BASE_URL）
	viper.SetEnvPrefix("storefront")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
