package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatorModel 创作者模型
type CreatorModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name          string `json:"name" gorm:"not null"`
	PayoutAccount string `json:"payout_account"`                 // 网关侧收款账户标识
	PayoutEnabled bool   `json:"payout_enabled" gorm:"default:false"` // 是否具备收款能力

	FeeRate       decimal.Decimal `json:"fee_rate" gorm:"type:numeric(5,4);not null"`       // 平台费率, 如 0.1000
	TotalEarnings decimal.Decimal `json:"total_earnings" gorm:"type:numeric(18,2);default:0"` // 累计到手金额, 只增不减
}

// TableName 自定义表名
func (CreatorModel) TableName() string {
	return "creator"
}
