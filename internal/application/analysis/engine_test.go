package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/pattern"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/strength"
	"bazi-engine-api/internal/domain/tengod"
	apperrors "bazi-engine-api/pkg/errors"
)

func analyzeProfile(t *testing.T, year, month, day, hour string) *Profile {
	t.Helper()
	p, err := NewEngine().Analyze(context.Background(), AnalyzeInput{
		Year:   year,
		Month:  month,
		Day:    day,
		Hour:   hour,
		Gender: chart.Male,
	})
	require.NoError(t, err)
	return p
}

func TestEngineProfilePillars(t *testing.T) {
	p := analyzeProfile(t, "己丑", "己巳", "甲子", "辛未")

	assert.Equal(t, SchemaVersion, p.SchemaVersion)
	assert.Equal(t, "己巳", p.Input.Month)
	assert.Equal(t, chart.Male, p.Input.Gender)
	assert.False(t, p.HourOmitted)

	require.Len(t, p.Pillars, 4)
	assert.Equal(t, "年柱", p.Pillars[0].Position)
	assert.Equal(t, "時柱", p.Pillars[3].Position)
	assert.Equal(t, "己丑", p.Pillars[0].GanZhi)
	assert.Equal(t, "正財", p.Pillars[0].TenGod)
	assert.Equal(t, "日主", p.Pillars[2].TenGod)
	assert.Equal(t, "正官", p.Pillars[3].TenGod)

	year := p.Pillars[0]
	assert.Equal(t, ganzhi.Earth, year.Stem.Element)
	assert.Equal(t, ganzhi.Earth, year.Branch.Element)
	require.Len(t, year.Branch.Hidden, 3)
	assert.Equal(t, ganzhi.Stem("己"), year.Branch.Hidden[0].Stem)
	assert.Equal(t, tengod.ZhengCai, year.Branch.Hidden[0].TenGod)
	assert.Equal(t, tengod.ZhengYin, year.Branch.Hidden[1].TenGod)
	assert.Equal(t, tengod.ZhengGuan, year.Branch.Hidden[2].TenGod)
	assert.InDelta(t, 1.0, year.Branch.Hidden[0].Weight, 1e-9)
	assert.InDelta(t, 0.5, year.Branch.Hidden[1].Weight, 1e-9)
}

func TestEngineProfileSections(t *testing.T) {
	p := analyzeProfile(t, "己丑", "己巳", "甲子", "辛未")

	require.NotNil(t, p.TenGods)
	assert.Equal(t, ganzhi.Stem("甲"), p.TenGods.DayMaster)
	require.Len(t, p.TenGods.Visible, 4)
	assert.Equal(t, tengod.DayMasterLabel, p.TenGods.Visible[2].God)
	assert.InDelta(t, 4.0, p.TenGods.WeightedCounts[tengod.ZhengCai], 1e-9)
	assert.InDelta(t, 4.3, p.TenGods.CategoryWeights[tengod.CategoryCaiXing], 1e-9)

	require.NotNil(t, p.Elements)
	assert.Equal(t, ganzhi.Earth, p.Elements.Dominant)
	assert.Empty(t, p.Elements.Missing)

	require.NotNil(t, p.Relations)
	foundClash := false
	for _, f := range p.Relations.Findings {
		if f.Kind == relation.KindLiuChong {
			foundClash = true
			assert.ElementsMatch(t, []string{"丑", "未"}, f.Members)
			assert.ElementsMatch(t, []string{"年", "時"}, f.Positions)
		}
	}
	assert.True(t, foundClash, "丑未沖應在關係清單中")

	require.NotNil(t, p.Voids)
	assert.Equal(t, "甲子", p.Voids.XunHead.String())
	assert.Equal(t, []ganzhi.Branch{"戌", "亥"}, p.Voids.VoidBranches)
	assert.Empty(t, p.Voids.VoidPositions)

	require.NotNil(t, p.Pattern)
	require.NotNil(t, p.Pattern.Result)
	assert.Equal(t, pattern.GeShiShen, p.Pattern.Result.Main)
	assert.NotEmpty(t, p.Pattern.Result.Steps)
	require.NotNil(t, p.Pattern.MonthGe)
	assert.Equal(t, pattern.GeShiShen, p.Pattern.MonthGe.Ge)
	require.NotNil(t, p.Pattern.Broken)
	assert.False(t, p.Pattern.Broken.IsBroken)

	require.NotNil(t, p.Strength)
	assert.Equal(t, strength.VerdictWeak, p.Strength.Verdict)

	require.NotNil(t, p.YongShen)
	require.NotNil(t, p.YongShen.XiJi)
	assert.Equal(t, []ganzhi.Element{ganzhi.Water, ganzhi.Earth, ganzhi.Wood}, p.YongShen.XiJi.Xi)

	assert.Len(t, p.LabelNotes, 6)
	assert.Empty(t, p.LuckCycles)
}

func TestEngineProfileJSON(t *testing.T) {
	p := analyzeProfile(t, "己丑", "己巳", "甲子", "辛未")
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	assert.Equal(t, "1", gjson.GetBytes(raw, "schema_version").String())
	assert.Equal(t, "己丑", gjson.GetBytes(raw, "pillars.0.ganzhi").String())
	assert.Equal(t, "日主", gjson.GetBytes(raw, "pillars.2.ten_god").String())
	assert.Equal(t, "食神格", gjson.GetBytes(raw, "pattern.result.主格").String())
	assert.Equal(t, "弱", gjson.GetBytes(raw, "strength.verdict").String())
	assert.Equal(t, "土", gjson.GetBytes(raw, "elements.dominant").String())
	assert.False(t, gjson.GetBytes(raw, "hour_omitted").Bool())
	assert.False(t, gjson.GetBytes(raw, "luck_cycles").Exists())

	xi := gjson.GetBytes(raw, "yongshen.喜忌.喜").Array()
	require.Len(t, xi, 3)
	assert.Equal(t, "水", xi[0].String())
}

func TestEngineDeterministic(t *testing.T) {
	p1 := analyzeProfile(t, "己丑", "己巳", "甲子", "辛未")
	p2 := analyzeProfile(t, "己丑", "己巳", "甲子", "辛未")

	raw1, err := json.Marshal(p1)
	require.NoError(t, err)
	raw2, err := json.Marshal(p2)
	require.NoError(t, err)
	assert.Equal(t, raw1, raw2)

	again, err := json.Marshal(p1)
	require.NoError(t, err)
	assert.Equal(t, raw1, again)
}

func TestEngineAnalyzeWithoutHour(t *testing.T) {
	p, err := NewEngine().Analyze(context.Background(), AnalyzeInput{
		Year:   "庚午",
		Month:  "辛酉",
		Day:    "甲申",
		Gender: chart.Female,
	})
	require.NoError(t, err)

	assert.True(t, p.HourOmitted)
	require.Len(t, p.Pillars, 3)
	assert.Equal(t, "", p.Input.Hour)

	require.NotNil(t, p.Voids)
	assert.Equal(t, []ganzhi.Branch{"午", "未"}, p.Voids.VoidBranches)
	assert.Equal(t, []string{"年"}, p.Voids.VoidPositions)
	require.Len(t, p.Voids.VoidGods, 1)
	assert.Equal(t, tengod.ShangGuan, p.Voids.VoidGods[0])

	assert.True(t, p.Elements.HourOmitted)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.True(t, gjson.GetBytes(raw, "hour_omitted").Bool())
	assert.False(t, gjson.GetBytes(raw, "input.hour").Exists())
}

func TestEngineInvalidPillar(t *testing.T) {
	cases := []struct {
		name  string
		input AnalyzeInput
	}{
		{"非六十甲子組合", AnalyzeInput{Year: "己丑", Month: "甲巳", Day: "甲子", Hour: "辛未", Gender: chart.Male}},
		{"亂碼", AnalyzeInput{Year: "xx", Month: "己巳", Day: "甲子", Hour: "辛未", Gender: chart.Male}},
		{"空串", AnalyzeInput{Year: "", Month: "己巳", Day: "甲子", Hour: "辛未", Gender: chart.Male}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine().Analyze(context.Background(), tc.input)
			require.Error(t, err)
			appErr := apperrors.AsAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperrors.CodeInvalidPillar, appErr.Code)
		})
	}
}
