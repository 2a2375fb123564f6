package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Storage  StorageConfig  `yaml:"storage"`
	Report   ReportConfig   `yaml:"report"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Email    EmailConfig    `yaml:"email"`
	Security SecurityConfig `yaml:"security"`
}

type ServerConfig struct {
	Host    string    `yaml:"host"`
	Port    int       `yaml:"port"`
	Mode    string    `yaml:"mode"`
	BaseURL string    `yaml:"base_url"` // 前端访问地址，用于拼接邀请链接
	TLS     TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Charset)
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type StorageConfig struct {
	ReportsDir string `yaml:"reports_dir"`
}

type ReportConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CronSpec        string `yaml:"cron_spec"`         // 每日报告的 cron 表达式
	AuditWindowHour int    `yaml:"audit_window_hour"` // 审计日志统计窗口（小时）
	RetentionDays   int    `yaml:"retention_days"`    // 报告文件保留天数
}

type WebhookConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"` // 单次投递超时
	MaxFailures    int `yaml:"max_failures"`    // 连续失败多少次后暂停
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SecurityConfig struct {
	// 登录安全
	MaxLoginAttempts int `yaml:"max_login_attempts"` // 最大登录尝试次数
	LoginLockMinutes int `yaml:"login_lock_minutes"` // 登录锁定时间（分钟）
	IPMaxAttempts    int `yaml:"ip_max_attempts"`    // IP 最大尝试次数
	IPLockMinutes    int `yaml:"ip_lock_minutes"`    // IP 锁定时间（分钟）

	// 密码策略
	PasswordMinLength int `yaml:"password_min_length"` // 密码最小长度

	// 安全头
	EnableSecurityHeaders bool `yaml:"enable_security_headers"` // 是否启用安全响应头

	// 允许的来源（CORS）
	AllowedOrigins []string `yaml:"allowed_origins"`
}

var globalConfig *Config

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 设置默认值
	setDefaults(&cfg)

	// 安全检查
	if err := validateSecurity(&cfg); err != nil {
		return nil, err
	}

	globalConfig = &cfg
	return &cfg, nil
}

func Get() *Config {
	return globalConfig
}

// Set 直接设置全局配置（测试用），传 nil 清空
func Set(cfg *Config) {
	if cfg != nil {
		setDefaults(cfg)
	}
	globalConfig = cfg
}

// setDefaults 设置默认值
func setDefaults(cfg *Config) {
	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = "http://localhost:3000"
	}
	if cfg.Storage.ReportsDir == "" {
		cfg.Storage.ReportsDir = "reports"
	}
	if cfg.Report.CronSpec == "" {
		cfg.Report.CronSpec = "0 6 * * *"
	}
	if cfg.Report.AuditWindowHour == 0 {
		cfg.Report.AuditWindowHour = 24
	}
	if cfg.Report.RetentionDays == 0 {
		cfg.Report.RetentionDays = 30
	}
	if cfg.Webhook.TimeoutSeconds == 0 {
		cfg.Webhook.TimeoutSeconds = 10
	}
	if cfg.Webhook.MaxFailures == 0 {
		cfg.Webhook.MaxFailures = 10
	}
	if cfg.Security.MaxLoginAttempts == 0 {
		cfg.Security.MaxLoginAttempts = 5
	}
	if cfg.Security.LoginLockMinutes == 0 {
		cfg.Security.LoginLockMinutes = 15
	}
	if cfg.Security.IPMaxAttempts == 0 {
		cfg.Security.IPMaxAttempts = 20
	}
	if cfg.Security.IPLockMinutes == 0 {
		cfg.Security.IPLockMinutes = 30
	}
	if cfg.Security.PasswordMinLength == 0 {
		cfg.Security.PasswordMinLength = 6
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24
	}
}

// validateSecurity 验证安全配置
func validateSecurity(cfg *Config) error {
	// 检查 JWT Secret
	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "your-jwt-secret-key-change-in-production" {
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("生产环境必须设置安全的 JWT Secret")
		}
		// 开发环境自动生成随机密钥
		cfg.JWT.Secret = generateRandomSecret(32)
		fmt.Println("[WARNING] 使用自动生成的 JWT Secret，请在生产环境配置安全的密钥")
	}

	// 检查 JWT Secret 长度
	if len(cfg.JWT.Secret) < 32 {
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("JWT Secret 长度至少需要 32 个字符")
		}
		fmt.Println("[WARNING] JWT Secret 长度建议至少 32 个字符")
	}

	return nil
}

// generateRandomSecret 生成随机密钥
func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
