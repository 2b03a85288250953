package xunkong

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/tengod"
)

func mustChart(t *testing.T, year, month, day, hour string) *chart.Chart {
	t.Helper()
	c, err := chart.New(year, month, day, hour, chart.Male)
	require.NoError(t, err)
	return c
}

func TestResolveAllXun(t *testing.T) {
	tests := []struct {
		dayPillar string
		xunHead   string
		void      [2]ganzhi.Branch
	}{
		{"甲子", "甲子", [2]ganzhi.Branch{ganzhi.BranchXu, ganzhi.BranchHai}},
		{"乙丑", "甲子", [2]ganzhi.Branch{ganzhi.BranchXu, ganzhi.BranchHai}},
		{"甲戌", "甲戌", [2]ganzhi.Branch{ganzhi.BranchShen, ganzhi.BranchYou}},
		{"甲申", "甲申", [2]ganzhi.Branch{ganzhi.BranchWu, ganzhi.BranchWei}},
		{"甲午", "甲午", [2]ganzhi.Branch{ganzhi.BranchChen, ganzhi.BranchSi}},
		{"甲辰", "甲辰", [2]ganzhi.Branch{ganzhi.BranchYin, ganzhi.BranchMao}},
		{"甲寅", "甲寅", [2]ganzhi.Branch{ganzhi.BranchZi, ganzhi.BranchChou}},
		{"癸亥", "甲寅", [2]ganzhi.Branch{ganzhi.BranchZi, ganzhi.BranchChou}},
		{"癸酉", "甲子", [2]ganzhi.Branch{ganzhi.BranchXu, ganzhi.BranchHai}},
	}

	for _, tt := range tests {
		t.Run(tt.dayPillar, func(t *testing.T) {
			r := Resolve(mustChart(t, "甲子", "乙丑", tt.dayPillar, "丁卯"))
			assert.Equal(t, tt.xunHead, r.XunHead.String())
			assert.Equal(t, tt.void, r.VoidBranches)
		})
	}
}

func TestResolveC0001NoVoidPositions(t *testing.T) {
	// 日柱甲子，旬空戌亥；盘中丑巳子未无落空
	r := Resolve(mustChart(t, "己丑", "己巳", "甲子", "辛未"))

	assert.Equal(t, "甲子", r.XunHead.String())
	assert.Equal(t, [2]ganzhi.Branch{ganzhi.BranchXu, ganzhi.BranchHai}, r.VoidBranches)
	assert.Empty(t, r.VoidPositions)
	assert.Empty(t, r.VoidGods)
}

func TestResolveVoidPositions(t *testing.T) {
	// 日柱甲午，旬空辰巳；年支辰月支巳落空
	r := Resolve(mustChart(t, "甲辰", "乙巳", "甲午", "丙寅"))

	assert.Equal(t, "甲午", r.XunHead.String())
	assert.Equal(t, [2]ganzhi.Branch{ganzhi.BranchChen, ganzhi.BranchSi}, r.VoidBranches)
	assert.Equal(t, []chart.Position{chart.PosYear, chart.PosMonth}, r.VoidPositions)
	assert.True(t, r.IsVoid(ganzhi.BranchChen))
	assert.False(t, r.IsVoid(ganzhi.BranchWu))
}

func TestResolveVoidGods(t *testing.T) {
	// 日柱甲辰，旬空寅卯；年寅月卯時卯皆落空
	// 寅本氣甲为比肩，卯本氣乙为劫財
	r := Resolve(mustChart(t, "甲寅", "乙卯", "甲辰", "丁卯"))

	assert.Equal(t, [2]ganzhi.Branch{ganzhi.BranchYin, ganzhi.BranchMao}, r.VoidBranches)
	require.Equal(t, []chart.Position{chart.PosYear, chart.PosMonth, chart.PosHour}, r.VoidPositions)
	assert.Equal(t, []tengod.TenGod{tengod.BiJian, tengod.JieCai, tengod.JieCai}, r.VoidGods)
}

func TestResolveWithoutHour(t *testing.T) {
	// 时辰不详：時柱不参与落空判定
	c, err := chart.NewWithoutHour("甲寅", "乙卯", "甲辰", chart.Male)
	require.NoError(t, err)
	r := Resolve(c)

	assert.True(t, r.HourOmitted)
	assert.Equal(t, []chart.Position{chart.PosYear, chart.PosMonth}, r.VoidPositions)
}
