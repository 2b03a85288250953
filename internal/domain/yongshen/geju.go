package yongshen

import (
	"fmt"

	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/pattern"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/tengod"
)

// XiangShenRef 順用格的相神取用
type XiangShenRef struct {
	XiangShen tengod.Category `json:"相神"`
	Element   ganzhi.Element  `json:"五行"`
	Effect    string          `json:"作用"`
}

// ZhiHuaRef 逆用格的制化取用
type ZhiHuaRef struct {
	ZhiHua  tengod.Category `json:"制化"`
	Element ganzhi.Element  `json:"五行"`
	Effect  string          `json:"作用"`
}

// ShunNiData 順逆用判定摘要
type ShunNiData struct {
	Direction pattern.Direction `json:"shunni"`
	MainGe    pattern.Ge        `json:"main_ge"`
	Reason    string            `json:"reason"`
	Hint      string            `json:"yongshen_direction"`
}

// GeJuData 格局鏡頭的完整取證
type GeJuData struct {
	DayElement  ganzhi.Element                     `json:"day_wuxing"`
	MainGe      pattern.Ge                         `json:"月令主格"`
	ShunNi      ShunNiData                         `json:"shunni_data"`
	GodElements map[tengod.Category]ganzhi.Element `json:"shishen_wuxing_map"`
	XiangShen   map[pattern.Ge]XiangShenRef        `json:"xiangshen_reference"`
	ZhiHua      map[pattern.Ge]ZhiHuaRef           `json:"zhihua_reference"`
}

// 順用格 → 護格相神
var xiangShenTable = map[pattern.Ge]struct {
	helper tengod.Category
	effect string
}{
	pattern.GeZhengCai:  {tengod.CategoryShiShang, "食傷生財"},
	pattern.GePianCai:   {tengod.CategoryShiShang, "食傷生財"},
	pattern.GeZhengGuan: {tengod.CategoryCaiXing, "財生官"},
	pattern.GeZhengYin:  {tengod.CategoryGuanSha, "官殺生印"},
	pattern.GeShiShen:   {tengod.CategoryCaiXing, "財洩食神"},
}

// 逆用格 → 制化之神
var zhiHuaTable = map[pattern.Ge]struct {
	helper tengod.Category
	effect string
}{
	pattern.GeQiSha:     {tengod.CategoryShiShang, "食神制殺"},
	pattern.GeShangGuan: {tengod.CategoryYinXing, "佩印制傷"},
	pattern.GePianYin:   {tengod.CategoryCaiXing, "財制梟神"},
	pattern.GeYangRen:   {tengod.CategoryGuanSha, "官殺制刃"},
}

func directionHint(p *pattern.Result, rep *relation.Report) string {
	if rep.Has(relation.KindSanHe) || rep.Has(relation.KindSanHui) {
		return "需制化或引泄"
	}
	switch p.Direction {
	case pattern.DirectionShun:
		return "護格、助格"
	case pattern.DirectionNi:
		return "制化、引泄"
	default:
		return "視具體情況"
	}
}

func buildGeJuData(in Input) *GeJuData {
	day := in.Chart.DayMaster().Element()

	d := &GeJuData{
		DayElement: day,
		MainGe:     in.Pattern.Main,
		ShunNi: ShunNiData{
			Direction: in.Pattern.Direction,
			MainGe:    in.Pattern.Main,
			Reason:    in.Pattern.DirectionReason,
			Hint:      directionHint(in.Pattern, in.Relations),
		},
		GodElements: map[tengod.Category]ganzhi.Element{},
		XiangShen:   map[pattern.Ge]XiangShenRef{},
		ZhiHua:      map[pattern.Ge]ZhiHuaRef{},
	}

	for _, c := range tengod.AllCategories() {
		d.GodElements[c] = c.ElementFor(day)
	}
	for ge, ref := range xiangShenTable {
		d.XiangShen[ge] = XiangShenRef{
			XiangShen: ref.helper,
			Element:   ref.helper.ElementFor(day),
			Effect:    ref.effect,
		}
	}
	for ge, ref := range zhiHuaTable {
		d.ZhiHua[ge] = ZhiHuaRef{
			ZhiHua:  ref.helper,
			Element: ref.helper.ElementFor(day),
			Effect:  ref.effect,
		}
	}
	return d
}

// geJuLens 順用取相神護格，逆用取制化；建祿、專旺等特殊格局懸置待定
func geJuLens(d *GeJuData) *Lens {
	l := newLens(LabelGeJu)

	switch d.ShunNi.Direction {
	case pattern.DirectionShun:
		if ref, ok := d.XiangShen[d.MainGe]; ok {
			l.Favorable = append(l.Favorable, ref.Element)
			l.Reason = fmt.Sprintf("%s順用，取%s為相神護格", d.MainGe, ref.Element)
			return l
		}
	case pattern.DirectionNi:
		if ref, ok := d.ZhiHua[d.MainGe]; ok {
			l.Favorable = append(l.Favorable, ref.Element)
			l.Reason = fmt.Sprintf("%s逆用，取%s制化", d.MainGe, ref.Element)
			return l
		}
	}

	l.Pending = true
	l.Reason = "格局特殊，需進一步分析"
	return l
}
