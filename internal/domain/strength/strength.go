// Package strength 实现日主强弱评估。按得令、得地、得势、得气四项逐一留据，
// 再经判定阶梯收束出偏強到極弱的细分结论，并折叠为強、中和、弱三档供
// 扶抑取用。全程只读命盘与十神汇总，不回写任何输入。
package strength

import (
	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/tengod"
)

// Verdict 强弱三档
type Verdict string

const (
	VerdictStrong  Verdict = "強"
	VerdictNeutral Verdict = "中和"
	VerdictWeak    Verdict = "弱"
)

// 细分结论
const (
	DetailPianQiang      = "偏強"
	DetailZhongHe        = "中和"
	DetailZhongHePianRuo = "中和偏弱"
	DetailPianRuo        = "偏弱"
	DetailJiRuo          = "極弱（可能從格）"
)

// 四项观察的状态标签
const (
	StatusDeLing  = "得令"
	StatusShiLing = "失令"

	StatusDeDiQiang = "得地強"
	StatusDeDi      = "得地"
	StatusDeDiRuo   = "得地弱"
	StatusWuGen     = "無根"

	StatusDeShi = "得勢"
	StatusWuShi = "無勢"

	StatusDeQi          = "得氣"
	StatusShiQi         = "失氣"
	StatusShiQiYanZhong = "嚴重失氣"
)

// DeLing 得令判据。月令五行与日主同行或生日主即为得令。
type DeLing struct {
	MonthElement   ganzhi.Element `json:"yue_wuxing"`
	DayElement     ganzhi.Element `json:"day_wuxing"`
	SameElement    bool           `json:"same_wuxing"`
	GeneratedBy    ganzhi.Element `json:"sheng_wo_wuxing"`
	MonthGenerates bool           `json:"is_sheng"`
}

// Root 日主在某地支藏干中的通根
type Root struct {
	Position chart.Position `json:"位置"`
	Branch   ganzhi.Branch  `json:"地支"`
	Stem     ganzhi.Stem    `json:"藏干"`
	Role     ganzhi.Role    `json:"角色"`
	Weight   float64        `json:"權重"`
}

// Supporter 天干层帮扶日主的比劫或印星，日主本身不计
type Supporter struct {
	Position chart.Position `json:"位置"`
	Stem     ganzhi.Stem    `json:"天干"`
	God      tengod.TenGod  `json:"十神"`
}

// DeQi 得气判据，帮扶与克泄的加权对比
type DeQi struct {
	BiJieWeight    float64 `json:"bijie_weight"`
	YinXingWeight  float64 `json:"yinxing_weight"`
	TotalSupport   float64 `json:"total_support"`
	GuanShaWeight  float64 `json:"guansha_weight"`
	CaiXingWeight  float64 `json:"caixing_weight"`
	ShiShangWeight float64 `json:"shishang_weight"`
	TotalDrain     float64 `json:"total_drain"`
}

// Assessment 日主强弱评估结果
type Assessment struct {
	DayMaster  ganzhi.Stem    `json:"day_master"`
	DayElement ganzhi.Element `json:"day_wuxing"`
	Phase      ganzhi.Phase   `json:"yueling_wangshuai"`

	DeLing       *DeLing `json:"de_ling_data"`
	DeLingStatus string  `json:"de_ling_status"`

	Roots      []Root `json:"de_di_list"`
	RootCount  int    `json:"de_di_count"`
	DeDiStatus string `json:"de_di_status"`

	Supporters     []Supporter `json:"de_shi_list"`
	SupporterCount int         `json:"de_shi_count"`
	DeShiStatus    string      `json:"de_shi_status"`

	DeQi       *DeQi  `json:"de_qi_data"`
	DeQiStatus string `json:"de_qi_status"`

	WeightedCounts map[tengod.TenGod]float64 `json:"weighted_counts"`

	Verdict     Verdict `json:"verdict"`
	Detail      string  `json:"verdict_detail"`
	HourOmitted bool    `json:"hour_omitted,omitempty"`
}

// supporterGods 计入得势的天干层十神
var supporterGods = map[tengod.TenGod]bool{
	tengod.BiJian:   true,
	tengod.JieCai:   true,
	tengod.ZhengYin: true,
	tengod.PianYin:  true,
}

// Assess 评估日主强弱。四项观察彼此独立，阶梯自上而下首条命中即为结论：
// 得令且得地（或更强）为偏強；得令且得势为偏強；失令无根无势为極弱；
// 失令且严重失气为偏弱；仅失令为中和偏弱；其余中和。
func Assess(c *chart.Chart, sum *tengod.Summary) *Assessment {
	day := c.DayMaster()
	elem := day.Element()
	monthElem := c.Month.Branch.Element()

	a := &Assessment{
		DayMaster:  day,
		DayElement: elem,
		Phase:      elem.SeasonalPhase(monthElem),
		DeLing: &DeLing{
			MonthElement:   monthElem,
			DayElement:     elem,
			SameElement:    monthElem == elem,
			GeneratedBy:    elem.GeneratedBy(),
			MonthGenerates: monthElem == elem.GeneratedBy(),
		},
		Roots:          []Root{},
		Supporters:     []Supporter{},
		WeightedCounts: sum.WeightedCounts,
		HourOmitted:    !c.HasHour(),
	}

	benqi := 0
	for _, pos := range c.Positions() {
		b := c.Pillar(pos).Branch
		for _, h := range b.HiddenStems() {
			if h.Stem.Element() != elem {
				continue
			}
			a.Roots = append(a.Roots, Root{
				Position: pos,
				Branch:   b,
				Stem:     h.Stem,
				Role:     h.Role,
				Weight:   h.Weight,
			})
			if h.Role == ganzhi.RoleBenQi {
				benqi++
			}
		}
	}
	a.RootCount = len(a.Roots)

	for _, it := range sum.VisibleGods() {
		if supporterGods[it.God] {
			a.Supporters = append(a.Supporters, Supporter{
				Position: it.Position,
				Stem:     it.Stem,
				God:      it.God,
			})
		}
	}
	a.SupporterCount = len(a.Supporters)

	a.DeQi = &DeQi{
		BiJieWeight:    sum.CategoryWeight(tengod.CategoryBiJie),
		YinXingWeight:  sum.CategoryWeight(tengod.CategoryYinXing),
		GuanShaWeight:  sum.CategoryWeight(tengod.CategoryGuanSha),
		CaiXingWeight:  sum.CategoryWeight(tengod.CategoryCaiXing),
		ShiShangWeight: sum.CategoryWeight(tengod.CategoryShiShang),
	}
	a.DeQi.TotalSupport = a.DeQi.BiJieWeight + a.DeQi.YinXingWeight
	a.DeQi.TotalDrain = a.DeQi.GuanShaWeight + a.DeQi.CaiXingWeight + a.DeQi.ShiShangWeight

	a.DeLingStatus = StatusShiLing
	if a.DeLing.SameElement || a.DeLing.MonthGenerates {
		a.DeLingStatus = StatusDeLing
	}

	switch {
	case benqi >= 2:
		a.DeDiStatus = StatusDeDiQiang
	case benqi == 1:
		a.DeDiStatus = StatusDeDi
	case a.RootCount > 0:
		a.DeDiStatus = StatusDeDiRuo
	default:
		a.DeDiStatus = StatusWuGen
	}

	a.DeShiStatus = StatusWuShi
	if a.SupporterCount >= 1 {
		a.DeShiStatus = StatusDeShi
	}

	switch {
	case a.DeQi.TotalSupport > a.DeQi.TotalDrain:
		a.DeQiStatus = StatusDeQi
	case a.DeQi.TotalSupport < a.DeQi.TotalDrain*0.5:
		a.DeQiStatus = StatusShiQiYanZhong
	default:
		a.DeQiStatus = StatusShiQi
	}

	a.Detail = a.ladder()
	switch a.Detail {
	case DetailPianQiang:
		a.Verdict = VerdictStrong
	case DetailZhongHe:
		a.Verdict = VerdictNeutral
	default:
		a.Verdict = VerdictWeak
	}
	return a
}

func (a *Assessment) ladder() string {
	attained := a.DeLingStatus == StatusDeLing
	switch {
	case attained && (a.DeDiStatus == StatusDeDiQiang || a.DeDiStatus == StatusDeDi):
		return DetailPianQiang
	case attained && a.DeShiStatus == StatusDeShi:
		return DetailPianQiang
	case !attained && a.DeDiStatus == StatusWuGen && a.DeShiStatus == StatusWuShi:
		return DetailJiRuo
	case !attained && a.DeQiStatus == StatusShiQiYanZhong:
		return DetailPianRuo
	case !attained:
		return DetailZhongHePianRuo
	default:
		return DetailZhongHe
	}
}
