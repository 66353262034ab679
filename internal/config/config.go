// Package config 提供应用程序的配置加载和管理功能
// 使用 TOML 格式的配置文件，支持多路径查找
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// MainConfig 主配置，包含应用基本信息
type MainConfig struct {
	AppName     string `toml:"appName"`     // 应用名称
	Host        string `toml:"host"`        // 监听地址，如 "0.0.0.0"
	Port        int    `toml:"port"`        // 监听端口，如 8000
	Mode        string `toml:"mode"`        // 运行模式："dev" 或 "release"
	TLSRedirect bool   `toml:"tlsRedirect"` // 是否启用 HTTP -> HTTPS 重定向（由 Nginx 终止 TLS 时关闭）
}

// MysqlConfig MySQL 数据库连接配置
type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

// StoreConfig 会话存储驱动
type StoreConfig struct {
	Driver string `toml:"driver"` // "mysql"（默认）或 "memory"（本地开发，进程内存储）
}

// RedisConfig Redis 连接配置
// Enabled 为 false 时不连接 Redis，在线状态只保存在进程内
type RedisConfig struct {
	Enabled     bool   `toml:"enabled"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	Password    string `toml:"password"`
	Db          int    `toml:"db"`
	PresenceTTL int    `toml:"presenceTTL"` // 在线状态镜像过期时间（分钟）
	WorkerNum   int    `toml:"workerNum"`   // 异步缓存任务 worker 数
	TaskBuffer  int    `toml:"taskBuffer"`  // 异步缓存任务缓冲区大小
}

// LogConfig 日志配置，使用 lumberjack 进行日志轮转
type LogConfig struct {
	LogPath    string `toml:"logPath"`
	FileName   string `toml:"fileName"`
	MaxSize    int    `toml:"maxSize"`    // MB
	MaxBackups int    `toml:"maxBackups"` // 个
	MaxAge     int    `toml:"maxAge"`     // 天
	Level      string `toml:"level"`      // debug, info, warn, error
}

// KafkaConfig 领域事件流配置
// MessageMode 为 "kafka" 时，消息/通话/在线状态事件会被异步写入 EventTopic
type KafkaConfig struct {
	MessageMode string        `toml:"messageMode"` // "channel"（仅进程内投递）或 "kafka"
	HostPort    string        `toml:"hostPort"`    // 逗号分隔的 broker 列表
	EventTopic  string        `toml:"eventTopic"`
	Timeout     time.Duration `toml:"timeout"` // 单位：秒
}

// JWTConfig JWT 认证配置
type JWTConfig struct {
	Secret            string `toml:"secret"`
	AccessTokenExpiry int    `toml:"accessTokenExpiry"` // 分钟
}

// SnowflakeConfig 雪花算法配置
type SnowflakeConfig struct {
	MachineID int64 `toml:"machineId"` // 0-1023，多实例部署时需唯一
}

// WsConfig WebSocket 连接配置
type WsConfig struct {
	ReadBufferSize  int `toml:"readBufferSize"`
	WriteBufferSize int `toml:"writeBufferSize"`
	SendQueueSize   int `toml:"sendQueueSize"`   // 每个连接的出站队列长度
	PongWait        int `toml:"pongWait"`        // 秒
	MaxMessageSize  int `toml:"maxMessageSize"`  // 字节
}

// Config 应用程序总配置
type Config struct {
	MainConfig      `toml:"mainConfig"`
	MysqlConfig     `toml:"mysqlConfig"`
	StoreConfig     `toml:"storeConfig"`
	RedisConfig     `toml:"redisConfig"`
	LogConfig       `toml:"logConfig"`
	KafkaConfig     `toml:"kafkaConfig"`
	JWTConfig       `toml:"jwtConfig"`
	SnowflakeConfig `toml:"snowflakeConfig"`
	WsConfig        `toml:"wsConfig"`
}

// config 全局配置单例，延迟加载
var config *Config

// LoadConfig 从多个候选路径加载配置文件，找到第一个可用的即停止
func LoadConfig() error {
	paths := []string{
		"configs/config_local.toml",
		"configs/config.toml",
		"../../configs/config_local.toml", // 从 cmd/xxx 目录运行
		"../../configs/config.toml",
	}
	for _, path := range paths {
		if _, err := toml.DecodeFile(path, config); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not find configuration file in any of the search paths")
}

// GetConfig 获取全局配置实例
// 首次调用时自动加载配置文件，找不到文件时使用零值配置
func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
