package models

import (
	"time"
)

// Warning 警告记录表（warnings 数据集）
// 每用户的警告列表只追加、只弹尾，历史条目不可修改。
type Warning struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	GuildID     string    `gorm:"type:varchar(32);index:idx_warn_guild_user;not null" json:"guild_id"`
	UserID      string    `gorm:"type:varchar(32);index:idx_warn_guild_user;not null" json:"user_id"`
	Reason      string    `gorm:"type:text" json:"reason"`
	IssuerKind  string    `gorm:"type:varchar(16);not null" json:"issuer_kind"` // operator/auto
	IssuerID    string    `gorm:"type:varchar(32)" json:"issuer_id"`            // 操作者ID，自动时为空
	IssuerLabel string    `gorm:"type:varchar(255)" json:"issuer_label"`        // 自动系统的显示名
	Auto        bool      `gorm:"default:false" json:"auto"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (Warning) TableName() string {
	return "warnings"
}

// Issuer 操作来源：真实操作者或自动系统（二选一的带标签变体）
type Issuer struct {
	Kind  string // operator/auto
	ID    string // Kind=operator 时的操作者ID
	Label string // Kind=auto 时的显示名
}

const (
	IssuerOperator = "operator"
	IssuerAuto     = "auto"
)

// AutoIssuerLabel 自动执法统一署名
const AutoIssuerLabel = "🤖 CẢNH SÁT VIỆT REALM"

// OperatorIssuer 构造操作者来源
func OperatorIssuer(id string) Issuer {
	return Issuer{Kind: IssuerOperator, ID: id}
}

// AutoIssuer 构造自动系统来源
func AutoIssuer() Issuer {
	return Issuer{Kind: IssuerAuto, Label: AutoIssuerLabel}
}

// Display 返回用于展示和审计的署名
func (i Issuer) Display() string {
	if i.Kind == IssuerAuto {
		return i.Label
	}
	return i.ID
}

// IsAuto 是否为自动执法
func (i Issuer) IsAuto() bool {
	return i.Kind == IssuerAuto
}
