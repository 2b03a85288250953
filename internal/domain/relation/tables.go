package relation

import "bazi-engine-api/internal/domain/ganzhi"

// pairKey 无序地支对的规范键，按地支序号排序
func pairKey(a, b ganzhi.Branch) [2]ganzhi.Branch {
	if a.Index() > b.Index() {
		return [2]ganzhi.Branch{b, a}
	}
	return [2]ganzhi.Branch{a, b}
}

type branchPair struct {
	a, b ganzhi.Branch
}

type combinePair struct {
	a, b   ganzhi.Branch
	result ganzhi.Element
}

// triad 三支组合
type triad struct {
	branches [3]ganzhi.Branch
	element  ganzhi.Element
}

// halfTriad 半三合：合化五行与所缺之支
type halfTriad struct {
	element ganzhi.Element
	missing ganzhi.Branch
}

// 六合：子丑土 寅亥木 卯戌火 辰酉金 巳申水 午未火
var liuHeRows = []combinePair{
	{ganzhi.BranchZi, ganzhi.BranchChou, ganzhi.Earth},
	{ganzhi.BranchYin, ganzhi.BranchHai, ganzhi.Wood},
	{ganzhi.BranchMao, ganzhi.BranchXu, ganzhi.Fire},
	{ganzhi.BranchChen, ganzhi.BranchYou, ganzhi.Metal},
	{ganzhi.BranchSi, ganzhi.BranchShen, ganzhi.Water},
	{ganzhi.BranchWu, ganzhi.BranchWei, ganzhi.Fire},
}

// 三合局：寅午戌火 申子辰水 巳酉丑金 亥卯未木
var sanHe = []triad{
	{[3]ganzhi.Branch{ganzhi.BranchYin, ganzhi.BranchWu, ganzhi.BranchXu}, ganzhi.Fire},
	{[3]ganzhi.Branch{ganzhi.BranchShen, ganzhi.BranchZi, ganzhi.BranchChen}, ganzhi.Water},
	{[3]ganzhi.Branch{ganzhi.BranchSi, ganzhi.BranchYou, ganzhi.BranchChou}, ganzhi.Metal},
	{[3]ganzhi.Branch{ganzhi.BranchHai, ganzhi.BranchMao, ganzhi.BranchWei}, ganzhi.Wood},
}

// 三會方：寅卯辰木 巳午未火 申酉戌金 亥子丑水
var sanHui = []triad{
	{[3]ganzhi.Branch{ganzhi.BranchYin, ganzhi.BranchMao, ganzhi.BranchChen}, ganzhi.Wood},
	{[3]ganzhi.Branch{ganzhi.BranchSi, ganzhi.BranchWu, ganzhi.BranchWei}, ganzhi.Fire},
	{[3]ganzhi.Branch{ganzhi.BranchShen, ganzhi.BranchYou, ganzhi.BranchXu}, ganzhi.Metal},
	{[3]ganzhi.Branch{ganzhi.BranchHai, ganzhi.BranchZi, ganzhi.BranchChou}, ganzhi.Water},
}

// 刑：無恩之刑（寅巳申两两） 持勢之刑（丑戌未两两） 無禮之刑（子卯）
var xingRows = []struct {
	a, b    ganzhi.Branch
	subtype string
}{
	{ganzhi.BranchYin, ganzhi.BranchSi, "無恩之刑"},
	{ganzhi.BranchSi, ganzhi.BranchShen, "無恩之刑"},
	{ganzhi.BranchYin, ganzhi.BranchShen, "無恩之刑"},
	{ganzhi.BranchChou, ganzhi.BranchXu, "持勢之刑"},
	{ganzhi.BranchXu, ganzhi.BranchWei, "持勢之刑"},
	{ganzhi.BranchChou, ganzhi.BranchWei, "持勢之刑"},
	{ganzhi.BranchZi, ganzhi.BranchMao, "無禮之刑"},
}

// 自刑之支，需在盘中出现两次
var ziXing = map[ganzhi.Branch]struct{}{
	ganzhi.BranchChen: {},
	ganzhi.BranchWu:   {},
	ganzhi.BranchYou:  {},
	ganzhi.BranchHai:  {},
}

// 六害：子未 丑午 寅巳 卯辰 申亥 酉戌
var liuHaiRows = []branchPair{
	{ganzhi.BranchZi, ganzhi.BranchWei},
	{ganzhi.BranchChou, ganzhi.BranchWu},
	{ganzhi.BranchYin, ganzhi.BranchSi},
	{ganzhi.BranchMao, ganzhi.BranchChen},
	{ganzhi.BranchShen, ganzhi.BranchHai},
	{ganzhi.BranchYou, ganzhi.BranchXu},
}

// 破：子酉 丑辰 寅亥 卯午 巳申 未戌
var poRows = []branchPair{
	{ganzhi.BranchZi, ganzhi.BranchYou},
	{ganzhi.BranchChou, ganzhi.BranchChen},
	{ganzhi.BranchYin, ganzhi.BranchHai},
	{ganzhi.BranchMao, ganzhi.BranchWu},
	{ganzhi.BranchSi, ganzhi.BranchShen},
	{ganzhi.BranchWei, ganzhi.BranchXu},
}

var (
	liuHe  = buildCombineMap(liuHeRows)
	liuHai = buildPairSet(liuHaiRows)
	po     = buildPairSet(poRows)
	xing   = buildXingMap()

	// 半三合由三合局导出：任取两支，合化同局五行，缺第三支
	banSanHe = buildHalfTriads()
	// 拱合由三合局导出：首尾两支虚拱中神
	gongHe = buildGongHe()
)

func buildCombineMap(rows []combinePair) map[[2]ganzhi.Branch]ganzhi.Element {
	m := make(map[[2]ganzhi.Branch]ganzhi.Element, len(rows))
	for _, r := range rows {
		m[pairKey(r.a, r.b)] = r.result
	}
	return m
}

func buildPairSet(rows []branchPair) map[[2]ganzhi.Branch]struct{} {
	m := make(map[[2]ganzhi.Branch]struct{}, len(rows))
	for _, r := range rows {
		m[pairKey(r.a, r.b)] = struct{}{}
	}
	return m
}

func buildXingMap() map[[2]ganzhi.Branch]string {
	m := make(map[[2]ganzhi.Branch]string, len(xingRows))
	for _, r := range xingRows {
		m[pairKey(r.a, r.b)] = r.subtype
	}
	return m
}

func buildHalfTriads() map[[2]ganzhi.Branch]halfTriad {
	m := make(map[[2]ganzhi.Branch]halfTriad, len(sanHe)*3)
	for _, t := range sanHe {
		for k := 0; k < 3; k++ {
			a := t.branches[k]
			b := t.branches[(k+1)%3]
			missing := t.branches[(k+2)%3]
			m[pairKey(a, b)] = halfTriad{element: t.element, missing: missing}
		}
	}
	return m
}

func buildGongHe() map[[2]ganzhi.Branch]halfTriad {
	m := make(map[[2]ganzhi.Branch]halfTriad, len(sanHe))
	for _, t := range sanHe {
		m[pairKey(t.branches[0], t.branches[2])] = halfTriad{element: t.element, missing: t.branches[1]}
	}
	return m
}

// clampTarget 两支在地支序列上是否夹住一支。相隔两位取中间；
// 戌子夹亥、亥丑夹子为跨序列边界的特例。
func clampTarget(a, b ganzhi.Branch) (ganzhi.Branch, bool) {
	i, j := a.Index(), b.Index()
	if i > j {
		i, j = j, i
	}
	if j-i == 2 {
		return ganzhi.BranchFromIndex((i + j) / 2), true
	}
	if i == 0 && j == 10 {
		return ganzhi.BranchHai, true
	}
	if i == 1 && j == 11 {
		return ganzhi.BranchZi, true
	}
	return "", false
}

// CombineResult 六合的合化五行
func CombineResult(a, b ganzhi.Branch) (ganzhi.Element, bool) {
	e, ok := liuHe[pairKey(a, b)]
	return e, ok
}

// IsClash 六沖判定
func IsClash(a, b ganzhi.Branch) bool {
	return a.Clash() == b
}
