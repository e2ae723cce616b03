package logic

import (
	"testing"

	"github.com/jaylenmareko/topic-funding-sub001/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCreatorDefaultFeeRate(t *testing.T) {
	db := openTestDB(t)
	creatorLogic := NewCreatorLogic(db, "0.15")

	// 未指定费率, 落配置的默认费率
	creator := &model.CreatorModel{Name: "新创作者"}
	require.NoError(t, creatorLogic.CreateCreator(creator))
	assert.True(t, creator.FeeRate.Equal(mustDecimal(t, "0.15")),
		"fee_rate = %s", creator.FeeRate)
	assert.True(t, creator.TotalEarnings.IsZero())

	var fresh model.CreatorModel
	require.NoError(t, db.First(&fresh, creator.Id).Error)
	assert.True(t, fresh.FeeRate.Equal(mustDecimal(t, "0.15")))

	// 显式费率优先于默认值
	custom := &model.CreatorModel{Name: "谈好价的创作者", FeeRate: mustDecimal(t, "0.05")}
	require.NoError(t, creatorLogic.CreateCreator(custom))
	assert.True(t, custom.FeeRate.Equal(mustDecimal(t, "0.05")))
}

func TestCreateCreatorValidation(t *testing.T) {
	db := openTestDB(t)
	creatorLogic := NewCreatorLogic(db, "0.10")

	err := creatorLogic.CreateCreator(&model.CreatorModel{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// 费率必须在 [0, 1) 区间
	err = creatorLogic.CreateCreator(&model.CreatorModel{
		Name:    "费率离谱",
		FeeRate: mustDecimal(t, "1.50"),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	// 开收款能力必须带收款账户
	err = creatorLogic.CreateCreator(&model.CreatorModel{
		Name:          "没有账户",
		PayoutEnabled: true,
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestNewCreatorLogicBadDefaultFallsBack(t *testing.T) {
	db := openTestDB(t)

	// 配置值非法时回退 0.10, 不让结算带着坏费率跑
	creatorLogic := NewCreatorLogic(db, "not-a-rate")
	creator := &model.CreatorModel{Name: "创作者"}
	require.NoError(t, creatorLogic.CreateCreator(creator))
	assert.True(t, creator.FeeRate.Equal(mustDecimal(t, "0.10")))
}
