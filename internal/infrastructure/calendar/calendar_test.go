package calendar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/chart"
	apperrors "bazi-engine-api/pkg/errors"
)

func TestConvertPillars(t *testing.T) {
	tests := []struct {
		year, month, day, hour                 int
		wantYear, wantMonth, wantDay, wantHour string
	}{
		// 1984-01-01 为甲子日锚点，立春前属癸亥年，大雪后为甲子月
		{1984, 1, 1, 0, "癸亥", "甲子", "甲子", "甲子"},
		{1984, 1, 1, 13, "癸亥", "甲子", "甲子", "辛未"},
		{2000, 1, 1, 12, "己卯", "丙子", "戊子", "戊午"},
		{1900, 2, 4, 10, "庚子", "戊寅", "戊寅", "丁巳"},
	}
	almanac := NewAlmanac()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%02d-%02d", tt.year, tt.month, tt.day), func(t *testing.T) {
			res, err := almanac.Convert(analysis.CivilDate{
				Year: tt.year, Month: tt.month, Day: tt.day, Hour: tt.hour, Gender: chart.Male,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantYear, res.Year.String())
			assert.Equal(t, tt.wantMonth, res.Month.String())
			assert.Equal(t, tt.wantDay, res.Day.String())
			assert.Equal(t, tt.wantHour, res.Hour.String())
			assert.True(t, res.HourKnown)
			assert.False(t, res.NextDay)
		})
	}
}

func TestConvertSeasonalBoundaries(t *testing.T) {
	almanac := NewAlmanac()

	// 立春前一日仍属前一年
	before, err := almanac.Convert(analysis.CivilDate{Year: 2000, Month: 2, Day: 3, Hour: -1, Gender: chart.Male})
	require.NoError(t, err)
	assert.Equal(t, "己卯", before.Year.String())
	assert.Equal(t, "丁丑", before.Month.String())

	after, err := almanac.Convert(analysis.CivilDate{Year: 2000, Month: 2, Day: 4, Hour: -1, Gender: chart.Male})
	require.NoError(t, err)
	assert.Equal(t, "庚辰", after.Year.String())
	assert.Equal(t, "戊寅", after.Month.String())

	// 驚蟄前一日仍属寅月
	beforeJie, err := almanac.Convert(analysis.CivilDate{Year: 2000, Month: 3, Day: 5, Hour: -1, Gender: chart.Male})
	require.NoError(t, err)
	assert.Equal(t, "戊寅", beforeJie.Month.String())

	afterJie, err := almanac.Convert(analysis.CivilDate{Year: 2000, Month: 3, Day: 6, Hour: -1, Gender: chart.Male})
	require.NoError(t, err)
	assert.Equal(t, "己卯", afterJie.Month.String())
}

func TestConvertNextDay(t *testing.T) {
	res, err := NewAlmanac().Convert(analysis.CivilDate{Year: 2000, Month: 1, Day: 1, Hour: 23, Gender: chart.Male})
	require.NoError(t, err)

	assert.True(t, res.NextDay)
	assert.Equal(t, "己卯", res.Year.String())
	assert.Equal(t, "丙子", res.Month.String())
	assert.Equal(t, "己丑", res.Day.String(), "23 时日柱应起算次日")
	assert.Equal(t, "甲子", res.Hour.String())
}

func TestConvertUnknownHour(t *testing.T) {
	res, err := NewAlmanac().Convert(analysis.CivilDate{Year: 2000, Month: 1, Day: 1, Hour: -1, Gender: chart.Female})
	require.NoError(t, err)

	assert.False(t, res.HourKnown)
	assert.False(t, res.NextDay)
	assert.Empty(t, res.Hour.String())
	require.Len(t, res.LuckCycles, luckCycleCount)
}

func TestConvertValidation(t *testing.T) {
	tests := []struct {
		name     string
		civil    analysis.CivilDate
		wantCode apperrors.ErrorCode
	}{
		{"早于1900立春", analysis.CivilDate{Year: 1900, Month: 2, Day: 3, Hour: 12}, apperrors.CodeDateOutOfRange},
		{"晚于2099年末", analysis.CivilDate{Year: 2100, Month: 1, Day: 1, Hour: 12}, apperrors.CodeDateOutOfRange},
		{"非法日期", analysis.CivilDate{Year: 2001, Month: 2, Day: 29, Hour: 12}, apperrors.CodeInvalidInput},
		{"非法小时", analysis.CivilDate{Year: 2000, Month: 1, Day: 1, Hour: 24}, apperrors.CodeInvalidInput},
	}
	almanac := NewAlmanac()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := almanac.Convert(tt.civil)
			appErr := apperrors.AsAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.wantCode, appErr.Code)
		})
	}
}

func TestLuckCycles(t *testing.T) {
	// 己卯年（陰）男命逆排，1 日生起运 3 岁
	res, err := NewAlmanac().Convert(analysis.CivilDate{Year: 2000, Month: 1, Day: 1, Hour: 12, Gender: chart.Male})
	require.NoError(t, err)

	want := []analysis.LuckCycle{
		{Sequence: 1, AgeStart: 3, AgeEnd: 12, GanZhi: "乙亥", Elements: "木水"},
		{Sequence: 2, AgeStart: 13, AgeEnd: 22, GanZhi: "甲戌", Elements: "木土"},
		{Sequence: 3, AgeStart: 23, AgeEnd: 32, GanZhi: "癸酉", Elements: "水金"},
		{Sequence: 4, AgeStart: 33, AgeEnd: 42, GanZhi: "壬申", Elements: "水金"},
		{Sequence: 5, AgeStart: 43, AgeEnd: 52, GanZhi: "辛未", Elements: "金土"},
		{Sequence: 6, AgeStart: 53, AgeEnd: 62, GanZhi: "庚午", Elements: "金火"},
		{Sequence: 7, AgeStart: 63, AgeEnd: 72, GanZhi: "己巳", Elements: "土火"},
		{Sequence: 8, AgeStart: 73, AgeEnd: 82, GanZhi: "戊辰", Elements: "土土"},
	}
	assert.Equal(t, want, res.LuckCycles)

	// 同日女命顺排
	female, err := NewAlmanac().Convert(analysis.CivilDate{Year: 2000, Month: 1, Day: 1, Hour: 12, Gender: chart.Female})
	require.NoError(t, err)
	assert.Equal(t, "丁丑", female.LuckCycles[0].GanZhi)

	// 15 日后出生起运 6 岁
	late, err := NewAlmanac().Convert(analysis.CivilDate{Year: 2000, Month: 1, Day: 20, Hour: 12, Gender: chart.Male})
	require.NoError(t, err)
	assert.Equal(t, 6, late.LuckCycles[0].AgeStart)
}

func TestToLunar(t *testing.T) {
	tests := []struct {
		year, month, day int
		want             LunarDate
	}{
		{1900, 1, 31, LunarDate{Year: 1900, Month: 1, Day: 1}},
		{1900, 2, 4, LunarDate{Year: 1900, Month: 1, Day: 5}},
		{1984, 2, 2, LunarDate{Year: 1984, Month: 1, Day: 1}},
		{2000, 2, 5, LunarDate{Year: 2000, Month: 1, Day: 1}},
		{1987, 7, 26, LunarDate{Year: 1987, Month: 6, Day: 1, Leap: true}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-%02d-%02d", tt.year, tt.month, tt.day), func(t *testing.T) {
			got, err := ToLunar(tt.year, tt.month, tt.day)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ToLunar(1900, 1, 30)
	assert.Error(t, err)

	assert.Equal(t, "1987年閏6月1日", LunarDate{Year: 1987, Month: 6, Day: 1, Leap: true}.String())
}

func TestConvertLunarEcho(t *testing.T) {
	res, err := NewAlmanac().Convert(analysis.CivilDate{Year: 1984, Month: 2, Day: 2, Hour: -1, Gender: chart.Male})
	require.NoError(t, err)
	assert.Equal(t, "1984年1月1日", res.Lunar)
}
