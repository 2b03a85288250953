// Package analysis 实现排盘应用层：纯计算引擎产出完整画像，
// 服务层在其上叠加缓存读穿、归档、相似检索与公历换算。
package analysis

import (
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/pattern"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/strength"
	"bazi-engine-api/internal/domain/tengod"
	"bazi-engine-api/internal/domain/xunkong"
	"bazi-engine-api/internal/domain/yongshen"
)

// SchemaVersion 画像结构版本，字段增删时递增
const SchemaVersion = "1"

// Profile 完整排盘画像。相同四柱与性别产出字节级相同的 JSON，
// 域内文字（干支、十神、格局名）保持繁体中文值。
type Profile struct {
	SchemaVersion string                      `json:"schema_version"`
	Input         InputEcho                   `json:"input"`
	Pillars       []PillarView                `json:"pillars"`
	TenGods       *TenGodView                 `json:"ten_gods"`
	Elements      *tengod.ElementDistribution `json:"elements"`
	Relations     *RelationsView              `json:"relations"`
	Voids         *VoidView                   `json:"voids"`
	Pattern       *PatternSection             `json:"pattern"`
	Strength      *strength.Assessment        `json:"strength"`
	YongShen      *yongshen.Result            `json:"yongshen"`
	LabelNotes    map[string]string           `json:"label_notes"`
	LuckCycles    []LuckCycle                 `json:"luck_cycles,omitempty"`
	HourOmitted   bool                        `json:"hour_omitted"`
}

// InputEcho 输入回显，公历路径附带原始出生时间
type InputEcho struct {
	Year   string       `json:"year"`
	Month  string       `json:"month"`
	Day    string       `json:"day"`
	Hour   string       `json:"hour,omitempty"`
	Gender chart.Gender `json:"gender"`
	Civil  *CivilEcho   `json:"civil,omitempty"`
}

// CivilEcho 公历出生时间回显，Hour 为 -1 表示时辰不详
type CivilEcho struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Hour    int    `json:"hour"`
	NextDay bool   `json:"next_day,omitempty"`
	Lunar   string `json:"lunar,omitempty"`
}

// StemView 天干展示
type StemView struct {
	Name    ganzhi.Stem    `json:"name"`
	Element ganzhi.Element `json:"element"`
}

// HiddenView 藏干展示，权重与十神随藏
type HiddenView struct {
	Stem    ganzhi.Stem    `json:"stem"`
	Element ganzhi.Element `json:"element"`
	Role    ganzhi.Role    `json:"role"`
	Weight  float64        `json:"weight"`
	TenGod  tengod.TenGod  `json:"ten_god"`
}

// BranchView 地支展示
type BranchView struct {
	Name    ganzhi.Branch  `json:"name"`
	Element ganzhi.Element `json:"element"`
	Hidden  []HiddenView   `json:"hidden"`
}

// PillarView 单柱展示。TenGod 为天干对日主的十神，日柱标注日主。
type PillarView struct {
	Position string     `json:"position"`
	GanZhi   string     `json:"ganzhi"`
	Stem     StemView   `json:"stem"`
	Branch   BranchView `json:"branch"`
	TenGod   string     `json:"ten_god"`
}

// TenGodItemView 十神条目，含宫位
type TenGodItemView struct {
	Position string        `json:"position"`
	Layer    tengod.Layer  `json:"layer"`
	Stem     ganzhi.Stem   `json:"stem"`
	Role     ganzhi.Role   `json:"role,omitempty"`
	Weight   float64       `json:"weight"`
	God      tengod.TenGod `json:"shishen"`
}

// TenGodView 全盘十神汇总
type TenGodView struct {
	DayMaster       ganzhi.Stem                 `json:"day_master"`
	Visible         []TenGodItemView            `json:"visible"`
	Hidden          []TenGodItemView            `json:"hidden"`
	Counts          map[tengod.TenGod]int       `json:"counts"`
	WeightedCounts  map[tengod.TenGod]float64   `json:"weighted_counts"`
	CategoryWeights map[tengod.Category]float64 `json:"category_weights"`
}

// RelationView 干支关系条目，宫位展开为可读短名
type RelationView struct {
	Kind      relation.Kind     `json:"type"`
	Members   []string          `json:"elements"`
	Positions []string          `json:"positions"`
	Result    ganzhi.Element    `json:"result,omitempty"`
	Subtype   string            `json:"subtype,omitempty"`
	Target    ganzhi.Branch     `json:"target,omitempty"`
	Severity  relation.Severity `json:"severity"`
	Note      string            `json:"note,omitempty"`
}

// RelationsView 全盘关系：实际关系与拱夾虚神分列
type RelationsView struct {
	Findings []RelationView `json:"findings"`
	Virtuals []RelationView `json:"virtuals"`
}

// VoidView 旬空
type VoidView struct {
	DayPillar     chart.Pillar    `json:"day_pillar"`
	XunHead       chart.Pillar    `json:"xun_head"`
	VoidBranches  []ganzhi.Branch `json:"void_branches"`
	VoidPositions []string        `json:"void_positions"`
	VoidGods      []tengod.TenGod `json:"void_gods"`
}

// PatternSection 格局判定全景：最终判定与四项中间证据
type PatternSection struct {
	Result    *pattern.Result        `json:"result"`
	MonthGe   *pattern.MonthGe       `json:"month_ge"`
	Evidence  []pattern.Evidence     `json:"evidence"`
	Broken    *pattern.Broken        `json:"broken"`
	Zhuanwang *pattern.ZhuanwangData `json:"zhuanwang,omitempty"`
	Cong      *pattern.CongData      `json:"cong,omitempty"`
}

// LuckCycle 大運十年一柱
type LuckCycle struct {
	Sequence int    `json:"seq"`
	AgeStart int    `json:"age_start"`
	AgeEnd   int    `json:"age_end"`
	GanZhi   string `json:"ganzhi"`
	Elements string `json:"elements"`
}

func newPillarViews(c *chart.Chart) []PillarView {
	day := c.DayMaster()
	views := make([]PillarView, 0, 4)
	for _, pos := range c.Positions() {
		p := c.Pillar(pos)
		view := PillarView{
			Position: pos.Short() + "柱",
			GanZhi:   p.String(),
			Stem:     StemView{Name: p.Stem, Element: p.Stem.Element()},
			Branch: BranchView{
				Name:    p.Branch,
				Element: p.Branch.Element(),
				Hidden:  newHiddenViews(day, p.Branch),
			},
		}
		if pos == chart.PosDay {
			view.TenGod = string(tengod.DayMasterLabel)
		} else {
			view.TenGod = string(tengod.Resolve(day, p.Stem))
		}
		views = append(views, view)
	}
	return views
}

func newHiddenViews(day ganzhi.Stem, b ganzhi.Branch) []HiddenView {
	hs := b.HiddenStems()
	views := make([]HiddenView, 0, len(hs))
	for _, h := range hs {
		views = append(views, HiddenView{
			Stem:    h.Stem,
			Element: h.Stem.Element(),
			Role:    h.Role,
			Weight:  h.Weight,
			TenGod:  tengod.Resolve(day, h.Stem),
		})
	}
	return views
}

func newTenGodView(sum *tengod.Summary) *TenGodView {
	return &TenGodView{
		DayMaster:       sum.DayMaster,
		Visible:         newTenGodItems(sum.VisibleGods()),
		Hidden:          newTenGodItems(sum.HiddenGods()),
		Counts:          sum.Counts,
		WeightedCounts:  sum.WeightedCounts,
		CategoryWeights: sum.CategoryWeights,
	}
}

func newTenGodItems(items []tengod.Item) []TenGodItemView {
	views := make([]TenGodItemView, 0, len(items))
	for _, it := range items {
		views = append(views, TenGodItemView{
			Position: it.Position.Short() + "柱",
			Layer:    it.Layer,
			Stem:     it.Stem,
			Role:     it.Role,
			Weight:   it.Weight,
			God:      it.God,
		})
	}
	return views
}

func newRelationsView(rep *relation.Report) *RelationsView {
	return &RelationsView{
		Findings: newRelationViews(rep.Findings),
		Virtuals: newRelationViews(rep.Virtuals),
	}
}

func newRelationViews(findings []relation.Finding) []RelationView {
	views := make([]RelationView, 0, len(findings))
	for _, f := range findings {
		positions := make([]string, 0, len(f.Positions))
		for _, pos := range f.Positions {
			positions = append(positions, pos.Short())
		}
		views = append(views, RelationView{
			Kind:      f.Kind,
			Members:   f.Members,
			Positions: positions,
			Result:    f.Result,
			Subtype:   f.Subtype,
			Target:    f.Target,
			Severity:  f.Severity,
			Note:      f.Note,
		})
	}
	return views
}

func newVoidView(res *xunkong.Result) *VoidView {
	positions := make([]string, 0, len(res.VoidPositions))
	for _, pos := range res.VoidPositions {
		positions = append(positions, pos.Short())
	}
	return &VoidView{
		DayPillar:     res.DayPillar,
		XunHead:       res.XunHead,
		VoidBranches:  res.VoidBranches[:],
		VoidPositions: positions,
		VoidGods:      res.VoidGods,
	}
}

func newPatternSection(p *pattern.Result) *PatternSection {
	return &PatternSection{
		Result:    p,
		MonthGe:   p.MonthGe,
		Evidence:  p.Evidence,
		Broken:    p.Broken,
		Zhuanwang: p.Zhuanwang,
		Cong:      p.Cong,
	}
}
