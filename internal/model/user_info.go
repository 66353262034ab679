// Package model 定义数据库实体模型
// 本文件定义用户信息模型，包含用户资料、在线状态和认证信息
package model

import (
	"database/sql"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInfo 用户信息模型
// 对应数据库 user_info 表
type UserInfo struct {
	gorm.Model

	// Uuid 用户唯一标识，格式：U + 雪花ID
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(24);not null;comment:用户唯一id"`

	// Name 显示名称，随消息冗余下发给对端
	Name string `gorm:"column:name;type:varchar(50);not null;comment:显示名称"`

	// Email 登录账号
	Email string `gorm:"column:email;uniqueIndex;type:varchar(100);not null;comment:邮箱"`

	// Phone 手机号（可选）
	Phone string `gorm:"column:phone;type:varchar(20);comment:电话"`

	// Password bcrypt 哈希后的密码
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码"`

	Avatar string `gorm:"column:avatar;type:varchar(255);comment:头像"`
	Bio    string `gorm:"column:bio;type:varchar(200);comment:个人简介"`

	// Status 在线状态：online/offline/away/busy/in-call
	// 由连接建立/断开、状态更新事件和通话生命周期修改
	Status string `gorm:"column:status;type:varchar(10);not null;default:offline;comment:在线状态"`

	// LastSeen 最近一次状态变化时间
	LastSeen sql.NullTime `gorm:"column:last_seen;type:datetime;comment:最近在线时间"`

	Verified bool `gorm:"column:verified;not null;default:false;comment:是否已验证"`

	// RawPassword 明文密码（不入库），在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_info"
}

// BeforeSave GORM Hook：创建和更新前将 RawPassword 加密写入 Password
func (u *UserInfo) BeforeSave(tx *gorm.DB) error {
	return u.HashPassword()
}

// HashPassword 若设置了明文密码，则加密并清空明文
// 内存存储没有 GORM Hook，直接调用此方法
func (u *UserInfo) HashPassword() error {
	if u.RawPassword == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	u.RawPassword = ""
	return nil
}

// CheckPassword 校验明文密码
func (u *UserInfo) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}
