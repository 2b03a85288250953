// Package yongshen 实现六標籤制用神解析：調候、格局、通關、病藥、專旺、扶抑
// 六个镜头各自独立取用，互不合并，最后再按镜头优先序聚合出喜忌閒三类。
// 專旺成势时压过扶抑与病藥；病藥與專旺取出的用神若仅寄身于空亡或被冲之支，
// 降级弃用并留注记。
package yongshen

import (
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/pattern"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/strength"
	"bazi-engine-api/internal/domain/tengod"
	"bazi-engine-api/internal/domain/xunkong"
)

// Label 用神標籤
type Label string

const (
	LabelTiaoHuo   Label = "調候用神"
	LabelGeJu      Label = "格局用神"
	LabelTongGuan  Label = "通關用神"
	LabelBingYao   Label = "病藥用神"
	LabelZhuanWang Label = "專旺用神"
	LabelFuYi      Label = "扶抑喜忌"
)

// Lens 單一標籤下的取用結果。喜忌兩組均空表示該鏡頭不啟用。
type Lens struct {
	Label       Label            `json:"type"`
	Favorable   []ganzhi.Element `json:"favorable"`
	Unfavorable []ganzhi.Element `json:"unfavorable"`
	Auxiliary   ganzhi.Element   `json:"auxiliary,omitempty"`
	Reason      string           `json:"reason,omitempty"`
	Notes       []string         `json:"notes,omitempty"`
	Pending     bool             `json:"pending,omitempty"`
}

// Empty 鏡頭是否未取出任何用神
func (l *Lens) Empty() bool {
	return len(l.Favorable) == 0 && len(l.Unfavorable) == 0
}

func newLens(label Label) *Lens {
	return &Lens{
		Label:       label,
		Favorable:   []ganzhi.Element{},
		Unfavorable: []ganzhi.Element{},
	}
}

// Input 用神解析所需的全部上游產物
type Input struct {
	Chart        *chart.Chart
	Distribution *tengod.ElementDistribution
	Pattern      *pattern.Result
	Strength     *strength.Assessment
	Relations    *relation.Report
	Voids        *xunkong.Result
}

// XiJi 聚合後的喜忌分類
type XiJi struct {
	Xi    []ganzhi.Element `json:"喜"`
	Ji    []ganzhi.Element `json:"忌"`
	Xian  []ganzhi.Element `json:"閒"`
	Chou  []ganzhi.Element `json:"仇"`
	Notes []string         `json:"notes"`
}

// Result 六鏡頭取用結果與聚合喜忌
type Result struct {
	TiaoHuo   *Lens `json:"調候用神"`
	GeJu      *Lens `json:"格局用神"`
	TongGuan  *Lens `json:"通關用神"`
	BingYao   *Lens `json:"病藥用神"`
	ZhuanWang *Lens `json:"專旺用神"`
	FuYi      *Lens `json:"扶抑喜忌"`

	XiJi *XiJi `json:"喜忌"`

	TiaoHuoData  *TiaoHuoData     `json:"調候數據"`
	GeJuData     *GeJuData        `json:"格局用神數據"`
	TongGuanData *TongGuanData    `json:"通關數據"`
	Relations    *WuXingRelations `json:"五行生剋參考"`

	HourOmitted bool `json:"-"`
}

// Resolve 解析全部六鏡頭。調候、格局、通關各自獨立查表；
// 扶抑取自日主強弱三檔；專旺候選成立時扶抑與病藥讓位。
func Resolve(in Input) *Result {
	r := &Result{HourOmitted: !in.Chart.HasHour()}

	r.TiaoHuoData = buildTiaoHuoData(in)
	r.TiaoHuo = tiaoHuoLens(r.TiaoHuoData)

	r.GeJuData = buildGeJuData(in)
	r.GeJu = geJuLens(r.GeJuData)

	r.TongGuanData = buildTongGuanData(in)
	r.TongGuan = tongGuanLens(r.TongGuanData)

	r.Relations = buildWuXingRelations(in.Chart.DayMaster().Element())

	r.FuYi = fuYiLens(in)
	r.ZhuanWang = zhuanWangLens(in)
	if r.ZhuanWang.Empty() {
		r.BingYao = bingYaoLens(in, r.FuYi)
	} else {
		r.BingYao = newLens(LabelBingYao)
	}

	demoteVoidClashed(in, r.ZhuanWang)
	demoteVoidClashed(in, r.BingYao)

	r.XiJi = aggregate(r)
	return r
}

// aggregate 按鏡頭優先序聚合喜忌：用神及其生者為喜（生者若落在任一鏡頭
// 忌方則不取），各鏡頭忌方與剋用神者為忌，餘者為閒。專旺啟用時跳過扶抑。
func aggregate(r *Result) *XiJi {
	lenses := []*Lens{r.TiaoHuo, r.GeJu, r.TongGuan, r.BingYao, r.ZhuanWang, r.FuYi}

	x := &XiJi{
		Xi:    []ganzhi.Element{},
		Ji:    []ganzhi.Element{},
		Xian:  []ganzhi.Element{},
		Chou:  []ganzhi.Element{},
		Notes: []string{},
	}

	overridden := !r.ZhuanWang.Empty()
	active := make([]*Lens, 0, len(lenses))
	for _, l := range lenses {
		if l.Empty() || l.Pending {
			continue
		}
		if overridden && l.Label == LabelFuYi {
			x.Notes = append(x.Notes, "專旺成勢，捨扶抑而順勢")
			continue
		}
		active = append(active, l)
		x.Notes = append(x.Notes, l.Notes...)
	}

	unfav := map[ganzhi.Element]bool{}
	for _, l := range active {
		for _, e := range l.Unfavorable {
			unfav[e] = true
		}
	}

	inXi := map[ganzhi.Element]bool{}
	addXi := func(e ganzhi.Element) {
		if !inXi[e] {
			inXi[e] = true
			x.Xi = append(x.Xi, e)
		}
	}
	for _, l := range active {
		for _, e := range l.Favorable {
			addXi(e)
			if g := e.GeneratedBy(); !unfav[g] {
				addXi(g)
			}
		}
	}

	inJi := map[ganzhi.Element]bool{}
	addJi := func(e ganzhi.Element) {
		if !inXi[e] && !inJi[e] {
			inJi[e] = true
			x.Ji = append(x.Ji, e)
		}
	}
	for _, l := range active {
		for _, e := range l.Unfavorable {
			addJi(e)
		}
	}
	for _, e := range x.Xi {
		addJi(e.ControlledBy())
	}

	for _, e := range ganzhi.AllElements() {
		if !inXi[e] && !inJi[e] {
			x.Xian = append(x.Xian, e)
		}
	}
	return x
}

// demoteVoidClashed 用神五行若天干不見、且所有本氣載體之支均空亡或被沖，
// 從喜方剔除並留注記
func demoteVoidClashed(in Input, l *Lens) {
	if l.Empty() {
		return
	}

	clashed := map[string]bool{}
	for _, f := range in.Relations.ByKind(relation.KindLiuChong) {
		for _, m := range f.Members {
			clashed[m] = true
		}
	}

	kept := l.Favorable[:0]
	for _, e := range l.Favorable {
		if carriedByStem(in.Chart, e) {
			kept = append(kept, e)
			continue
		}
		carriers, degraded := branchCarriers(in, e, clashed)
		if len(carriers) == 0 || !degraded {
			kept = append(kept, e)
			continue
		}
		l.Notes = append(l.Notes, e.String()+"僅見於空亡或受沖之支，降級不用")
	}
	l.Favorable = kept
}

func carriedByStem(c *chart.Chart, e ganzhi.Element) bool {
	for _, pos := range c.Positions() {
		if c.Pillar(pos).Stem.Element() == e {
			return true
		}
	}
	return false
}

// branchCarriers 本氣屬 e 的地支載體，degraded 表示全部空亡或被沖
func branchCarriers(in Input, e ganzhi.Element, clashed map[string]bool) ([]ganzhi.Branch, bool) {
	var carriers []ganzhi.Branch
	degraded := true
	for _, pos := range in.Chart.Positions() {
		b := in.Chart.Pillar(pos).Branch
		if b.Element() != e {
			continue
		}
		carriers = append(carriers, b)
		if !in.Voids.IsVoid(b) && !clashed[string(b)] {
			degraded = false
		}
	}
	return carriers, degraded
}

// WuXingRelations 以日主為中心的五行生剋參考
type WuXingRelations struct {
	DayElement   ganzhi.Element                    `json:"day_wuxing"`
	Generates    ganzhi.Element                    `json:"sheng"`
	Controls     ganzhi.Element                    `json:"ke"`
	GeneratedBy  ganzhi.Element                    `json:"sheng_wo"`
	ControlledBy ganzhi.Element                    `json:"ke_wo"`
	ShengMap     map[ganzhi.Element]ganzhi.Element `json:"full_sheng_map"`
	KeMap        map[ganzhi.Element]ganzhi.Element `json:"full_ke_map"`
}

func buildWuXingRelations(day ganzhi.Element) *WuXingRelations {
	r := &WuXingRelations{
		DayElement:   day,
		Generates:    day.Generates(),
		Controls:     day.Controls(),
		GeneratedBy:  day.GeneratedBy(),
		ControlledBy: day.ControlledBy(),
		ShengMap:     map[ganzhi.Element]ganzhi.Element{},
		KeMap:        map[ganzhi.Element]ganzhi.Element{},
	}
	for _, e := range ganzhi.AllElements() {
		r.ShengMap[e] = e.Generates()
		r.KeMap[e] = e.Controls()
	}
	return r
}

// LabelsDescription 六標籤制說明，隨導出附帶
func LabelsDescription() map[string]string {
	return map[string]string{
		"調候": "寒暖燥濕調節，冬夏極端時優先",
		"格局": "護格助格，根據順逆用決定",
		"通關": "化解對峙，兩行皆強時使用",
		"病藥": "去病得藥，有病方需藥",
		"專旺": "順勢引泄，從格專旺時使用",
		"扶抑": "強弱調節，日主過旺過弱時使用",
	}
}
