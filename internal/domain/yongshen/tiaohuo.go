package yongshen

import (
	"fmt"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
)

// TiaoHuoRef 調候參考表條目
type TiaoHuoRef struct {
	Primary   ganzhi.Element `json:"primary"`
	Auxiliary ganzhi.Element `json:"auxiliary,omitempty"`
	Reason    string         `json:"reason"`
}

// ElementPresence 某五行在命局中的存在情況
type ElementPresence struct {
	Present bool    `json:"存在"`
	Weight  float64 `json:"權重"`
}

// TiaoHuoData 調候鏡頭的完整取證
type TiaoHuoData struct {
	DayMaster   ganzhi.Stem                        `json:"day_master"`
	DayElement  ganzhi.Element                     `json:"day_wuxing"`
	MonthBranch ganzhi.Branch                      `json:"yue_zhi"`
	Season      ganzhi.Season                      `json:"season"`
	SeasonTemp  string                             `json:"season_temp"`
	Reference   TiaoHuoRef                         `json:"tiaohuo_reference"`
	Existing    map[ganzhi.Element]ElementPresence `json:"existing_tiaohuo"`
	Positions   []string                           `json:"tiaohuo_positions"`
	Counts      map[ganzhi.Element]float64         `json:"wuxing_counts"`
	Status      string                             `json:"調候狀態"`
}

// 日主五行 × 月令季節 → 調候取用。主用神必取，輔用神視寒暖程度酌用。
var tiaoHuoTable = map[ganzhi.Element]map[ganzhi.Season]TiaoHuoRef{
	ganzhi.Wood: {
		ganzhi.Spring: {Primary: ganzhi.Water, Auxiliary: ganzhi.Fire, Reason: "春木需水滋養，火暖之"},
		ganzhi.Summer: {Primary: ganzhi.Water, Reason: "夏木焦枯，急需水潤"},
		ganzhi.Autumn: {Primary: ganzhi.Water, Auxiliary: ganzhi.Fire, Reason: "秋木凋零，水生之火暖之"},
		ganzhi.Winter: {Primary: ganzhi.Fire, Auxiliary: ganzhi.Water, Reason: "冬木寒凍，火暖為先"},
	},
	ganzhi.Fire: {
		ganzhi.Spring: {Primary: ganzhi.Wood, Reason: "春火得木生旺"},
		ganzhi.Summer: {Primary: ganzhi.Water, Auxiliary: ganzhi.Metal, Reason: "夏火太旺，水制金洩"},
		ganzhi.Autumn: {Primary: ganzhi.Wood, Reason: "秋火衰弱，木生之"},
		ganzhi.Winter: {Primary: ganzhi.Wood, Reason: "冬火弱極，木生火暖"},
	},
	ganzhi.Earth: {
		ganzhi.Spring: {Primary: ganzhi.Fire, Reason: "春土虛浮，火生之"},
		ganzhi.Summer: {Primary: ganzhi.Water, Reason: "夏土燥烈，水潤之"},
		ganzhi.Autumn: {Primary: ganzhi.Fire, Reason: "秋土洩氣，火生之"},
		ganzhi.Winter: {Primary: ganzhi.Fire, Reason: "冬土寒凍，火暖之"},
	},
	ganzhi.Metal: {
		ganzhi.Spring: {Primary: ganzhi.Earth, Reason: "春金休囚，土生之"},
		ganzhi.Summer: {Primary: ganzhi.Water, Auxiliary: ganzhi.Earth, Reason: "夏金熔化，水冷土生"},
		ganzhi.Autumn: {Primary: ganzhi.Fire, Auxiliary: ganzhi.Water, Reason: "秋金太旺，火制水洩"},
		ganzhi.Winter: {Primary: ganzhi.Fire, Auxiliary: ganzhi.Earth, Reason: "冬金寒凝，火暖土生"},
	},
	ganzhi.Water: {
		ganzhi.Spring: {Primary: ganzhi.Metal, Reason: "春水洩氣，金生之"},
		ganzhi.Summer: {Primary: ganzhi.Metal, Auxiliary: ganzhi.Water, Reason: "夏水枯涸，金生水助"},
		ganzhi.Autumn: {Primary: ganzhi.Metal, Reason: "秋水得金生旺"},
		ganzhi.Winter: {Primary: ganzhi.Fire, Auxiliary: ganzhi.Wood, Reason: "冬水寒凝，火暖木洩"},
	},
}

var seasonTemp = map[ganzhi.Season]string{
	ganzhi.Spring: "溫",
	ganzhi.Summer: "熱",
	ganzhi.Autumn: "涼",
	ganzhi.Winter: "寒",
}

const (
	TiaoHuoAmple        = "調候得宜"
	TiaoHuoPassable     = "調候尚可"
	TiaoHuoInsufficient = "調候不足"
)

func buildTiaoHuoData(in Input) *TiaoHuoData {
	day := in.Chart.DayMaster()
	month := in.Chart.Pillar(chart.PosMonth).Branch
	season := month.Season()

	d := &TiaoHuoData{
		DayMaster:   day,
		DayElement:  day.Element(),
		MonthBranch: month,
		Season:      season,
		SeasonTemp:  seasonTemp[season],
		Reference:   tiaoHuoTable[day.Element()][season],
		Existing:    map[ganzhi.Element]ElementPresence{},
		Positions:   []string{},
		Counts:      in.Distribution.Counts,
	}

	for _, e := range ganzhi.AllElements() {
		w := in.Distribution.Counts[e]
		d.Existing[e] = ElementPresence{Present: w > 0, Weight: w}
	}

	for _, pos := range in.Chart.Positions() {
		p := in.Chart.Pillar(pos)
		if p.Stem.Element() == d.Reference.Primary {
			d.Positions = append(d.Positions, pos.Short()+"干")
		}
		if p.Branch.Element() == d.Reference.Primary {
			d.Positions = append(d.Positions, pos.Short()+"支")
		}
	}

	primary := d.Existing[d.Reference.Primary]
	switch {
	case primary.Present && primary.Weight >= 1.0:
		d.Status = TiaoHuoAmple
	case primary.Present:
		d.Status = TiaoHuoPassable
	default:
		d.Status = TiaoHuoInsufficient
	}
	return d
}

func tiaoHuoLens(d *TiaoHuoData) *Lens {
	l := newLens(LabelTiaoHuo)
	l.Favorable = append(l.Favorable, d.Reference.Primary)
	l.Auxiliary = d.Reference.Auxiliary
	l.Reason = fmt.Sprintf("日主%s（%s）生於%s月（%s），%s",
		d.DayMaster, d.DayElement, d.Season, d.MonthBranch, d.Reference.Reason)
	return l
}
