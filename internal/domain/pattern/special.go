package pattern

import (
	"fmt"

	"bazi-engine-api/internal/domain/chart"
	"bazi-engine-api/internal/domain/ganzhi"
	"bazi-engine-api/internal/domain/relation"
	"bazi-engine-api/internal/domain/tengod"
)

// ZhuanwangData 一行得氣（專旺）判據。月令同氣、地支匯聚成勢
// 且剋我之行天干地支本氣均不見時，候選成立。
type ZhuanwangData struct {
	DayElement      ganzhi.Element `json:"day_wuxing"`
	Name            Ge             `json:"zhuanwang_ge_name"`
	MonthMatch      bool           `json:"yueling_match"`
	SameBranchCount int            `json:"zhi_same_wuxing_count"`
	HasSanHe        bool           `json:"has_sanhe_same_wuxing"`
	HasSanHui       bool           `json:"has_sanhui_same_wuxing"`
	KeElement       ganzhi.Element `json:"ke_wuxing"`
	KeInStems       bool           `json:"ke_wuxing_in_tiangan"`
	KeInPrincipal   bool           `json:"ke_wuxing_in_dizhi_benqi"`
	Candidate       bool           `json:"is_candidate"`
}

func zhuanwangData(c *chart.Chart, rep *relation.Report) *ZhuanwangData {
	day := c.DayMaster().Element()
	z := &ZhuanwangData{
		DayElement: day,
		Name:       zhuanwangGe[day],
		MonthMatch: c.Month.Branch.Element() == day,
		KeElement:  day.ControlledBy(),
	}

	for _, pos := range c.Positions() {
		p := c.Pillar(pos)
		if p.Branch.Element() == day {
			z.SameBranchCount++
		}
		if p.Stem.Element() == z.KeElement {
			z.KeInStems = true
		}
		if p.Branch.PrincipalStem().Element() == z.KeElement {
			z.KeInPrincipal = true
		}
	}
	for _, f := range rep.ByKind(relation.KindSanHe) {
		if f.Result == day {
			z.HasSanHe = true
		}
	}
	for _, f := range rep.ByKind(relation.KindSanHui) {
		if f.Result == day {
			z.HasSanHui = true
		}
	}

	z.Candidate = z.MonthMatch &&
		(z.HasSanHe || z.HasSanHui || z.SameBranchCount >= 3) &&
		!z.KeInStems && !z.KeInPrincipal
	return z
}

// CongData 從格判據。日主地支無本氣根且幫扶力微時，
// 按財、殺、食傷之勢歸入從格候選。
type CongData struct {
	DayMaster        ganzhi.Stem               `json:"day_master"`
	HasPrincipalRoot bool                      `json:"has_benqi_root"`
	PrincipalRootAt  []string                  `json:"benqi_root_positions"`
	AllRoots         []string                  `json:"all_roots"`
	SupportWeight    float64                   `json:"rizhu_support_weight"`
	BiJieWeight      float64                   `json:"bijie_weight"`
	YinXingWeight    float64                   `json:"yinxing_weight"`
	CaiXingWeight    float64                   `json:"caixing_weight"`
	GuanShaWeight    float64                   `json:"guansha_weight"`
	QiShaWeight      float64                   `json:"qisha_weight"`
	ShiShangWeight   float64                   `json:"shishang_weight"`
	WeightedCounts   map[tengod.TenGod]float64 `json:"weighted_counts"`
	Candidate        Ge                        `json:"cong_candidate,omitempty"`
}

func congData(c *chart.Chart, sum *tengod.Summary) *CongData {
	day := c.DayMaster()
	dayElem := day.Element()

	g := &CongData{
		DayMaster:       day,
		PrincipalRootAt: []string{},
		AllRoots:        []string{},
		BiJieWeight:     sum.CategoryWeight(tengod.CategoryBiJie),
		YinXingWeight:   sum.CategoryWeight(tengod.CategoryYinXing),
		CaiXingWeight:   sum.CategoryWeight(tengod.CategoryCaiXing),
		GuanShaWeight:   sum.CategoryWeight(tengod.CategoryGuanSha),
		QiShaWeight:     sum.WeightOf(tengod.QiSha),
		ShiShangWeight:  sum.CategoryWeight(tengod.CategoryShiShang),
		WeightedCounts:  sum.WeightedCounts,
	}
	g.SupportWeight = g.BiJieWeight + g.YinXingWeight

	for _, pos := range c.Positions() {
		b := c.Pillar(pos).Branch
		for _, h := range b.HiddenStems() {
			if h.Stem.Element() != dayElem {
				continue
			}
			g.AllRoots = append(g.AllRoots,
				fmt.Sprintf("%s支%s藏%s（%s）", pos.Short(), b, h.Stem, h.Role))
			if h.Role == ganzhi.RoleBenQi {
				g.HasPrincipalRoot = true
				g.PrincipalRootAt = append(g.PrincipalRootAt, pos.Short())
			}
		}
	}

	if !g.HasPrincipalRoot && g.SupportWeight < 1.5 {
		switch {
		case g.CaiXingWeight >= 3.0:
			g.Candidate = GeCongCai
		case g.QiShaWeight >= 2.5:
			g.Candidate = GeCongSha
		case g.ShiShangWeight >= 3.0:
			g.Candidate = GeCongEr
		}
	}
	return g
}
