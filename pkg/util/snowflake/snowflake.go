// Package snowflake 生成全局唯一 ID
// 用户、会话、消息的 uuid 均由雪花 ID 加类型前缀组成
package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"terrasapp_server/internal/config"
)

// ID 前缀
const (
	PrefixUser         = "U"
	PrefixConversation = "C"
	PrefixMessage      = "M"
)

var (
	node     *snowflake.Node
	nodeOnce sync.Once
)

// Init 初始化雪花算法节点，多次调用只生效一次
func Init() {
	nodeOnce.Do(func() {
		machineID := config.GetConfig().SnowflakeConfig.MachineID
		if machineID < 0 || machineID > 1023 {
			zap.L().Warn("invalid snowflake machineId, using 1", zap.Int64("machineId", machineID))
			machineID = 1
		}
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			zap.L().Fatal("failed to initialize snowflake node", zap.Error(err))
		}
		zap.L().Info("snowflake node initialized", zap.Int64("machineId", machineID))
	})
}

// GenerateIDString 生成字符串形式的雪花 ID，避免前端精度丢失
func GenerateIDString() string {
	Init()
	return node.Generate().String()
}

// NewUuid 生成带前缀的业务 uuid，如 "C1790000000000000000"
func NewUuid(prefix string) string {
	return prefix + GenerateIDString()
}
