// Package tengod 实现十神判定：以日主天干为基准，按五行关系与阴阳异同
// 将任意天干归入十神，并对整盘（天干层加藏干层）做加权汇总。
package tengod

import (
	"bazi-engine-api/internal/domain/ganzhi"
)

// TenGod 十神
type TenGod string

const (
	BiJian    TenGod = "比肩"
	JieCai    TenGod = "劫財"
	ShiShen   TenGod = "食神"
	ShangGuan TenGod = "傷官"
	PianCai   TenGod = "偏財"
	ZhengCai  TenGod = "正財"
	QiSha     TenGod = "七殺"
	ZhengGuan TenGod = "正官"
	PianYin   TenGod = "偏印"
	ZhengYin  TenGod = "正印"

	// DayMasterLabel 日柱天干在明细中的标注，不计入十神统计
	DayMasterLabel TenGod = "日主"
)

// 十神表：行为五行关系偏移（同我0 我生1 我克2 克我3 生我4），列为阴阳异同
var godTable = [5][2]TenGod{
	{BiJian, JieCai},
	{ShiShen, ShangGuan},
	{PianCai, ZhengCai},
	{QiSha, ZhengGuan},
	{PianYin, ZhengYin},
}

// AllTenGods 返回十神全集，按十神表行序
func AllTenGods() []TenGod {
	out := make([]TenGod, 0, 10)
	for _, row := range godTable {
		out = append(out, row[0], row[1])
	}
	return out
}

// Resolve 判定 target 相对日主的十神
func Resolve(dayMaster, target ganzhi.Stem) TenGod {
	rel := (target.Element().Index() - dayMaster.Element().Index() + 5) % 5
	col := 0
	if target.Polarity() != dayMaster.Polarity() {
		col = 1
	}
	return godTable[rel][col]
}

func (t TenGod) String() string { return string(t) }

// Category 十神类别
type Category string

const (
	CategoryBiJie    Category = "比劫"
	CategoryShiShang Category = "食傷"
	CategoryCaiXing  Category = "財星"
	CategoryGuanSha  Category = "官殺"
	CategoryYinXing  Category = "印星"
)

var categories = [...]Category{
	CategoryBiJie, CategoryShiShang, CategoryCaiXing, CategoryGuanSha, CategoryYinXing,
}

// AllCategories 按五行关系偏移顺序返回十神类别
func AllCategories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// Category 十神所属类别
func (t TenGod) Category() Category {
	switch t {
	case BiJian, JieCai:
		return CategoryBiJie
	case ShiShen, ShangGuan:
		return CategoryShiShang
	case PianCai, ZhengCai:
		return CategoryCaiXing
	case QiSha, ZhengGuan:
		return CategoryGuanSha
	case PianYin, ZhengYin:
		return CategoryYinXing
	default:
		return ""
	}
}

// Offset 类别对日主的五行偏移（比劫0 食傷1 財星2 官殺3 印星4）
func (c Category) Offset() int {
	for i, cat := range categories {
		if cat == c {
			return i
		}
	}
	return -1
}

// ElementFor 类别在给定日主五行下对应的五行
func (c Category) ElementFor(day ganzhi.Element) ganzhi.Element {
	return ganzhi.AllElements()[(day.Index()+c.Offset())%5]
}

func (c Category) String() string { return string(c) }
