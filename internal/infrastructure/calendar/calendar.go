// Package calendar 实现公历出生时间到四柱干支的确定性换算。
//
// 节气边界沿用原始历法的固定近似日（立春取 2 月 4 日），年柱以立春为界、
// 锚定 1984 甲子年；日柱按儒略日推算、锚定 1984-01-01 甲子日。23 时出生
// 起算次日日柱（晚子時），只换日柱，年月柱仍按当日节气归属。
package calendar

import (
	"fmt"
	"time"

	"bazi-engine-api/internal/application/analysis"
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/pkg/errors"
)

var (
	minDate = time.Date(1900, time.February, 4, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// 各公历月「节」的近似日：小寒6 立春4 驚蟄6 清明5 立夏6 芒種6
// 小暑7 立秋8 白露8 寒露8 立冬8 大雪7
var jieDays = [13]int{0, 6, 4, 6, 5, 6, 6, 7, 8, 8, 8, 8, 7}

// 五虎遁：年干起正月（寅月）天干，甲己→丙 乙庚→戊 丙辛→庚 丁壬→壬 戊癸→甲
var wuhuStart = [10]int{2, 4, 6, 8, 0, 2, 4, 6, 8, 0}

// 五鼠遁：日干起子时天干，甲己→甲 乙庚→丙 丙辛→戊 丁壬→庚 戊癸→壬
var wushuStart = [10]int{0, 2, 4, 6, 8, 0, 2, 4, 6, 8}

// 1984-01-01 甲子日的儒略日
const anchorJD = 2445701

// 大運排 8 柱，每柱十年
const luckCycleCount = 8

// Almanac 历法换算器，实现排盘应用层的同名端口
type Almanac struct{}

// NewAlmanac 创建历法换算器
func NewAlmanac() *Almanac {
	return &Almanac{}
}

// Convert 换算公历出生时间为四柱、农历与大運
func (a *Almanac) Convert(civil analysis.CivilDate) (*analysis.CivilResult, error) {
	if err := validate(civil); err != nil {
		return nil, err
	}

	res := &analysis.CivilResult{
		Year: yearPillar(civil.Year, civil.Month, civil.Day),
		Day:  dayPillar(civil.Year, civil.Month, civil.Day),
	}
	res.Month = monthPillar(res.Year.Stem, solarMonth(civil.Month, civil.Day))

	if civil.HourKnown() {
		res.HourKnown = true
		if civil.Hour == 23 {
			next := time.Date(civil.Year, time.Month(civil.Month), civil.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
			res.Day = dayPillar(next.Year(), int(next.Month()), next.Day())
			res.NextDay = true
		}
		res.Hour = hourPillar(res.Day.Stem, civil.Hour)
	}

	if lunar, err := ToLunar(civil.Year, civil.Month, civil.Day); err == nil {
		res.Lunar = lunar.String()
	}
	res.LuckCycles = luckCycles(res.Year.Stem, res.Month, civil.Gender, civil.Day)
	return res, nil
}

func validate(civil analysis.CivilDate) error {
	t := time.Date(civil.Year, time.Month(civil.Month), civil.Day, 0, 0, 0, 0, time.UTC)
	// time.Date 会把非法日期规范化（如 2 月 30 日），须回对原值
	if t.Year() != civil.Year || int(t.Month()) != civil.Month || t.Day() != civil.Day {
		return errors.New(errors.CodeInvalidInput,
			fmt.Sprintf("无效的公历日期 %04d-%02d-%02d", civil.Year, civil.Month, civil.Day))
	}
	if t.Before(minDate) || !t.Before(maxDate) {
		return errors.New(errors.CodeDateOutOfRange, "支持的公历范围为 1900-02-04 至 2099-12-31")
	}
	if civil.Hour > 23 {
		return errors.New(errors.CodeInvalidInput, fmt.Sprintf("无效的小时 %d", civil.Hour))
	}
	return nil
}

// yearPillar 年柱：以立春为界，1984 年为甲子
func yearPillar(year, month, day int) chart.Pillar {
	if month < 2 || (month == 2 && day < jieDays[2]) {
		year--
	}
	offset := year - 1984
	return chart.Pillar{Stem: ganzhi.StemFromIndex(offset), Branch: ganzhi.BranchFromIndex(offset)}
}

// solarMonth 节气月序（1=寅月 … 12=丑月）：未过本月之「节」归上月
func solarMonth(month, day int) int {
	if day < jieDays[month] {
		month--
		if month == 0 {
			month = 12
		}
	}
	m := month - 1
	if m <= 0 {
		m += 12
	}
	return m
}

// monthPillar 月柱：月干按五虎遁自年干推，寅月支为寅
func monthPillar(yearStem ganzhi.Stem, solarMonth int) chart.Pillar {
	return chart.Pillar{
		Stem:   ganzhi.StemFromIndex(wuhuStart[yearStem.Index()] + solarMonth - 1),
		Branch: ganzhi.BranchFromIndex(solarMonth + 1),
	}
}

// dayPillar 日柱：儒略日对甲子日锚点取模
func dayPillar(year, month, day int) chart.Pillar {
	offset := julianDay(year, month, day) - anchorJD
	return chart.Pillar{Stem: ganzhi.StemFromIndex(offset), Branch: ganzhi.BranchFromIndex(offset)}
}

func julianDay(year, month, day int) int {
	a := (14 - month) / 12
	y := year + 4800 - a
	m := month + 12*a - 3
	return day + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// hourPillar 时柱：时干按五鼠遁自日干推
func hourPillar(dayStem ganzhi.Stem, hour int) chart.Pillar {
	zhi := hourBranchIndex(hour)
	return chart.Pillar{
		Stem:   ganzhi.StemFromIndex(wushuStart[dayStem.Index()] + zhi),
		Branch: ganzhi.BranchFromIndex(zhi),
	}
}

// hourBranchIndex 时辰地支序：23 点与 0 点均为子时
func hourBranchIndex(hour int) int {
	if hour == 23 {
		return 0
	}
	return (hour + 1) / 2
}

// luckCycles 大運：陽年男、陰年女顺排，否则逆排；自月柱起每十年進一柱。
// 起运岁数取原始历法的近似：生日在 15 日前（含）起 3 岁，否则 6 岁。
func luckCycles(yearStem ganzhi.Stem, month chart.Pillar, gender chart.Gender, birthDay int) []analysis.LuckCycle {
	dir := -1
	if (yearStem.Polarity() == ganzhi.Yang) == (gender == chart.Male) {
		dir = 1
	}
	startAge := 6
	if birthDay <= 15 {
		startAge = 3
	}

	cycles := make([]analysis.LuckCycle, 0, luckCycleCount)
	for i := 0; i < luckCycleCount; i++ {
		stem := ganzhi.StemFromIndex(month.Stem.Index() + (i+1)*dir)
		branch := ganzhi.BranchFromIndex(month.Branch.Index() + (i+1)*dir)
		age := startAge + i*10
		cycles = append(cycles, analysis.LuckCycle{
			Sequence: i + 1,
			AgeStart: age,
			AgeEnd:   age + 9,
			GanZhi:   string(stem) + string(branch),
			Elements: string(stem.Element()) + string(branch.Element()),
		})
	}
	return cycles
}
