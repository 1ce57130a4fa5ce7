package models

import (
	"time"
)

// Operator 授权操作者表（operators 数据集）
// 只有授权操作者可以使用管理命令。
type Operator struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID   string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"user_id"`
	UserName string    `gorm:"type:varchar(255)" json:"user_name"`
	AddedBy  string    `gorm:"type:varchar(32)" json:"added_by"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}
