// Package mysql 负责建立 MySQL 连接、自动迁移表结构并组装 Repository 层
package mysql

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"terrasapp_server/internal/config"
	"terrasapp_server/internal/dao/mysql/repository"
	"terrasapp_server/internal/model"
)

// Open 按配置建立数据库连接并迁移表结构
func Open(conf *config.MysqlConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User,
		conf.Password,
		conf.Host,
		conf.Port,
		conf.DatabaseName,
	)

	db, err := gorm.Open(mysqldriver.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 只新增表和字段，不会删除已有字段或数据
	if err := db.AutoMigrate(
		&model.UserInfo{},
		&model.UserContact{},
		&model.Conversation{},
		&model.ConversationParticipant{},
		&model.Message{},
		&model.MessageDeletion{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}

// Init 初始化数据库并返回 Repository 聚合，失败直接退出
func Init() *repository.Repositories {
	db, err := Open(&config.GetConfig().MysqlConfig)
	if err != nil {
		zap.L().Fatal("mysql init failed", zap.Error(err))
	}
	return repository.NewRepositories(db)
}
