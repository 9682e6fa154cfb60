package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig          `mapstructure:"database"` // PostgreSQL配置
	Sync     SyncConfig              `mapstructure:"sync"`     // 同步调度配置
	Vendors  map[string]VendorConfig `mapstructure:"vendors"`  // 多厂商独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // GORM日志级别：silent/error/warn/info
	// 空库时建出注册表和凭据表；生产库的这些表由外部导入工具维护，保持关闭
	BootstrapRegistry bool `mapstructure:"bootstrap_registry"`
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	Cron           string        `mapstructure:"cron"`            // 定时同步Cron表达式，空则只由HTTP触发
	RunTimeout     time.Duration `mapstructure:"run_timeout"`     // 单次运行超时
	EnabledVendors []string      `mapstructure:"enabled_vendors"` // 启用的厂商及执行顺序
}

// VendorConfig 单个厂商的独立配置
type VendorConfig struct {
	BaseURL              string `mapstructure:"base_url"`               // API基础地址
	Timeout              int    `mapstructure:"timeout"`                // 请求超时（秒）
	Proxy                string `mapstructure:"proxy"`                  // 代理地址
	Username             string `mapstructure:"username"`               // 账号（Lotek），为空时读库中凭据
	Password             string `mapstructure:"password"`               // 密码（Lotek）
	PositionLookbackDays int    `mapstructure:"position_lookback_days"` // 定位回溯天数，0 表示不带 dtStart
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.bootstrap_registry", false)
	v.SetDefault("sync.run_timeout", 30*time.Minute)
	v.SetDefault("sync.enabled_vendors", []string{"lotek", "vectronic"})
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if cfg.Vendors == nil {
		cfg.Vendors = make(map[string]VendorConfig)
	}

	l := cfg.Vendors["lotek"]
	if v := os.Getenv("LOTEK_API_URL"); v != "" {
		l.BaseURL = v
	}
	if v := os.Getenv("LOTEK_USER"); v != "" {
		l.Username = v
	}
	if v := os.Getenv("LOTEK_PASS"); v != "" {
		l.Password = v
	}
	if v := os.Getenv("LOTEK_PROXY"); v != "" {
		l.Proxy = v
	}
	cfg.Vendors["lotek"] = l

	vc := cfg.Vendors["vectronic"]
	if v := os.Getenv("VECTRONICS_URL"); v != "" {
		vc.BaseURL = v
	}
	if v := os.Getenv("VECTRONICS_PROXY"); v != "" {
		vc.Proxy = v
	}
	cfg.Vendors["vectronic"] = vc

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v, ok := os.LookupEnv("SYNC_CRON"); ok {
		cfg.Sync.Cron = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

// GetGORMConfig 获取GORM配置（日志级别取自配置）
func (d *DatabaseConfig) GetGORMConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(d.GormLogLevel()),
	}
}

// GormLogLevel 将配置的日志级别转换为 GORM 日志级别，未知值按 warn 处理
func (d *DatabaseConfig) GormLogLevel() logger.LogLevel {
	switch d.LogLevel {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
