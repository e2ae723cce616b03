package config

import (
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Payout   PayoutConfig   `mapstructure:"payout"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// GatewayConfig 支付网关配置
type GatewayConfig struct {
	BaseURL       string `mapstructure:"base_url"`       // 网关API地址
	APIKey        string `mapstructure:"api_key"`        // API密钥
	WebhookSecret string `mapstructure:"webhook_secret"` // webhook签名密钥
	TimeoutSec    int    `mapstructure:"timeout_sec"`    // 请求超时（秒）
}

// PayoutConfig 结算配置
type PayoutConfig struct {
	DefaultFeeRate    string `mapstructure:"default_fee_rate"`    // 默认平台费率, 如 "0.10"
	ContentGraceHours int    `mapstructure:"content_grace_hours"` // 达标后内容交付宽限期（小时）
}

type TaskConfig struct {
	Interval        int `mapstructure:"interval"`         // 秒
	ReconcileWindow int `mapstructure:"reconcile_window"` // 对账回扫窗口（小时）
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/tfs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "topicfunding")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("gateway.base_url", "https://api.pay.example.com")
	viper.SetDefault("gateway.timeout_sec", 10)
	viper.SetDefault("payout.default_fee_rate", "0.10")
	viper.SetDefault("payout.content_grace_hours", 48)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("task.reconcile_window", 24)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
