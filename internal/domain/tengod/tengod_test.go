package tengod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
)

func TestResolveJiaDayMaster(t *testing.T) {
	tests := []struct {
		target ganzhi.Stem
		want   TenGod
	}{
		{ganzhi.StemJia, BiJian},
		{ganzhi.StemYi, JieCai},
		{ganzhi.StemBing, ShiShen},
		{ganzhi.StemDing, ShangGuan},
		{ganzhi.StemWu, PianCai},
		{ganzhi.StemJi, ZhengCai},
		{ganzhi.StemGeng, QiSha},
		{ganzhi.StemXin, ZhengGuan},
		{ganzhi.StemRen, PianYin},
		{ganzhi.StemGui, ZhengYin},
	}

	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(ganzhi.StemJia, tt.target))
		})
	}
}

func TestResolveSelfIsBiJian(t *testing.T) {
	for _, s := range ganzhi.AllStems() {
		assert.Equal(t, BiJian, Resolve(s, s))
	}
}

func TestResolveCompleteness(t *testing.T) {
	for _, day := range ganzhi.AllStems() {
		for _, target := range ganzhi.AllStems() {
			god := Resolve(day, target)
			assert.Contains(t, AllTenGods(), god)
		}
	}
}

func TestCategory(t *testing.T) {
	assert.Equal(t, CategoryBiJie, BiJian.Category())
	assert.Equal(t, CategoryBiJie, JieCai.Category())
	assert.Equal(t, CategoryShiShang, ShangGuan.Category())
	assert.Equal(t, CategoryCaiXing, PianCai.Category())
	assert.Equal(t, CategoryGuanSha, QiSha.Category())
	assert.Equal(t, CategoryGuanSha, ZhengGuan.Category())
	assert.Equal(t, CategoryYinXing, ZhengYin.Category())
}

func TestCategoryElementFor(t *testing.T) {
	// 甲日主（木）：財星为土，官殺为金，印星为水
	assert.Equal(t, ganzhi.Wood, CategoryBiJie.ElementFor(ganzhi.Wood))
	assert.Equal(t, ganzhi.Fire, CategoryShiShang.ElementFor(ganzhi.Wood))
	assert.Equal(t, ganzhi.Earth, CategoryCaiXing.ElementFor(ganzhi.Wood))
	assert.Equal(t, ganzhi.Metal, CategoryGuanSha.ElementFor(ganzhi.Wood))
	assert.Equal(t, ganzhi.Water, CategoryYinXing.ElementFor(ganzhi.Wood))
}

func mustChart(t *testing.T, year, month, day, hour string) *chart.Chart {
	t.Helper()
	c, err := chart.New(year, month, day, hour, chart.Male)
	require.NoError(t, err)
	return c
}

func TestSummarizeC0001(t *testing.T) {
	// 己丑 己巳 甲子 辛未
	c := mustChart(t, "己丑", "己巳", "甲子", "辛未")
	s := Summarize(c)

	// 4天干 + 藏干 丑3 巳3 子1 未3 = 14 条
	require.Len(t, s.Items, 14)

	visible := s.VisibleGods()
	require.Len(t, visible, 4)
	assert.Equal(t, ZhengCai, visible[0].God)       // 年干己
	assert.Equal(t, ZhengCai, visible[1].God)       // 月干己
	assert.Equal(t, DayMasterLabel, visible[2].God) // 日干甲
	assert.Equal(t, ZhengGuan, visible[3].God)      // 時干辛

	// 正財：年己 月己 丑藏己 未藏己
	assert.Equal(t, 4, s.Counts[ZhengCai])
	assert.InDelta(t, 4.0, s.WeightedCounts[ZhengCai], 1e-9)

	// 日支子藏癸为正印
	var dayHidden []Item
	for _, it := range s.HiddenGods() {
		if it.Position == chart.PosDay {
			dayHidden = append(dayHidden, it)
		}
	}
	require.Len(t, dayHidden, 1)
	assert.Equal(t, ganzhi.StemGui, dayHidden[0].Stem)
	assert.Equal(t, ZhengYin, dayHidden[0].God)

	// 天干层权重 1.0；本氣藏干权重 1.0
	for _, it := range visible {
		assert.Equal(t, 1.0, it.Weight)
	}
	for _, it := range s.HiddenGods() {
		if it.Role == ganzhi.RoleBenQi {
			assert.Equal(t, 1.0, it.Weight)
		}
	}
}

func TestSummarizeAllSameStem(t *testing.T) {
	c := mustChart(t, "甲子", "甲午", "甲申", "甲寅")
	s := Summarize(c)

	visible := s.VisibleGods()
	bijian, rizhu := 0, 0
	for _, it := range visible {
		switch it.God {
		case BiJian:
			bijian++
		case DayMasterLabel:
			rizhu++
		}
	}
	assert.Equal(t, 3, bijian)
	assert.Equal(t, 1, rizhu)

	// 日主标注不计入统计
	assert.Equal(t, 3, s.Counts[BiJian])
}

func TestSummarizeWithoutHour(t *testing.T) {
	c, err := chart.NewWithoutHour("己丑", "己巳", "甲子", chart.Male)
	require.NoError(t, err)
	s := Summarize(c)

	assert.True(t, s.HourOmitted)
	// 3天干 + 藏干 丑3 巳3 子1 = 10 条
	assert.Len(t, s.Items, 10)
	// 時干辛（正官）不再出现
	assert.Equal(t, 0, s.Counts[ZhengGuan])
	// 未藏己不计，正財少 1
	assert.Equal(t, 3, s.Counts[ZhengCai])
}

func TestCountElementsC0001(t *testing.T) {
	c := mustChart(t, "己丑", "己巳", "甲子", "辛未")
	d := CountElements(c)

	// 天干：己己甲辛 -> 土2 木1 金1
	assert.Equal(t, 2.0, d.StemCounts[ganzhi.Earth])
	assert.Equal(t, 1.0, d.StemCounts[ganzhi.Wood])
	assert.Equal(t, 1.0, d.StemCounts[ganzhi.Metal])

	// 地支：丑巳子未 -> 土2 火1 水1
	assert.Equal(t, 2.0, d.BranchCounts[ganzhi.Earth])
	assert.Equal(t, 1.0, d.BranchCounts[ganzhi.Fire])
	assert.Equal(t, 1.0, d.BranchCounts[ganzhi.Water])

	// 藏干：丑(己1.0 癸0.5 辛0.3) 巳(丙1.0 戊0.5 庚0.3) 子(癸1.0) 未(己1.0 丁0.5 乙0.3)
	assert.InDelta(t, 2.5, d.HiddenCounts[ganzhi.Earth], 1e-9) // 己+戊+己
	assert.InDelta(t, 1.5, d.HiddenCounts[ganzhi.Water], 1e-9) // 癸+癸
	assert.InDelta(t, 1.5, d.HiddenCounts[ganzhi.Fire], 1e-9)  // 丙+丁
	assert.InDelta(t, 0.6, d.HiddenCounts[ganzhi.Metal], 1e-9) // 辛+庚
	assert.InDelta(t, 0.3, d.HiddenCounts[ganzhi.Wood], 1e-9)  // 乙

	// 总计与主导
	assert.InDelta(t, 6.5, d.Counts[ganzhi.Earth], 1e-9)
	assert.Equal(t, ganzhi.Earth, d.Dominant)
	assert.Empty(t, d.Missing)
}

func TestCountElementsMissing(t *testing.T) {
	// 甲子 甲子 甲子 甲子：木(甲)與水(子+癸)外其余全缺
	c := mustChart(t, "甲子", "甲子", "甲子", "甲子")
	d := CountElements(c)

	assert.ElementsMatch(t, []ganzhi.Element{ganzhi.Metal, ganzhi.Fire, ganzhi.Earth}, d.Missing)
	assert.Equal(t, 8.0, d.Counts[ganzhi.Water])
	assert.Equal(t, 4.0, d.Counts[ganzhi.Wood])
	assert.Equal(t, ganzhi.Water, d.Dominant)
}
