package logic

import (
	"errors"
	"fmt"

	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreatorLogic 创作者业务逻辑
type CreatorLogic struct {
	db             *gorm.DB
	defaultFeeRate decimal.Decimal
}

// NewCreatorLogic 创建创作者业务逻辑
// defaultFeeRate 来自配置 payout.default_fee_rate, 解析失败时回退 0.10
func NewCreatorLogic(db *gorm.DB, defaultFeeRate string) *CreatorLogic {
	rate, err := decimal.NewFromString(defaultFeeRate)
	if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		logger.Warn("Invalid default fee rate %q, falling back to 0.10", defaultFeeRate)
		rate = decimal.RequireFromString("0.10")
	}
	return &CreatorLogic{db: db, defaultFeeRate: rate}
}

// CreateCreator 创作者入驻
// 未指定费率时落配置的默认费率, 之后结算只读创作者行上的费率
func (c *CreatorLogic) CreateCreator(creator *model.CreatorModel) error {
	if creator.Name == "" {
		return NewValidationError("创作者名称不能为空")
	}

	if creator.FeeRate.IsZero() {
		creator.FeeRate = c.defaultFeeRate
	}
	if creator.FeeRate.IsNegative() || creator.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return NewValidationError("费率 %s 必须在 [0, 1) 区间", creator.FeeRate)
	}

	// 收款能力需要网关侧账户
	if creator.PayoutEnabled && creator.PayoutAccount == "" {
		return NewValidationError("开通收款能力需要提供收款账户")
	}

	creator.TotalEarnings = decimal.Zero
	return c.db.Create(creator).Error
}

// GetCreator 获取创作者详情
func (c *CreatorLogic) GetCreator(id int64) (*model.CreatorModel, error) {
	var creator model.CreatorModel
	if err := c.db.First(&creator, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreatorNotFound
		}
		return nil, fmt.Errorf("获取创作者详情失败: %w", err)
	}
	return &creator, nil
}
