package ganzhi

import "fmt"

// Branch 地支
type Branch string

const (
	BranchZi   Branch = "子"
	BranchChou Branch = "丑"
	BranchYin  Branch = "寅"
	BranchMao  Branch = "卯"
	BranchChen Branch = "辰"
	BranchSi   Branch = "巳"
	BranchWu   Branch = "午"
	BranchWei  Branch = "未"
	BranchShen Branch = "申"
	BranchYou  Branch = "酉"
	BranchXu   Branch = "戌"
	BranchHai  Branch = "亥"
)

var branches = [...]Branch{
	BranchZi, BranchChou, BranchYin, BranchMao, BranchChen, BranchSi,
	BranchWu, BranchWei, BranchShen, BranchYou, BranchXu, BranchHai,
}

var branchIndex = buildIndex(branches[:])

// 地支五行：子水 丑土 寅卯木 辰土 巳午火 未土 申酉金 戌土 亥水
var branchElements = [...]Element{
	Water, Earth, Wood, Wood, Earth, Fire,
	Fire, Earth, Metal, Metal, Earth, Water,
}

var zodiacs = [...]string{
	"鼠", "牛", "虎", "兔", "龍", "蛇",
	"馬", "羊", "猴", "雞", "狗", "豬",
}

// AllBranches 按子至亥顺序返回十二地支
func AllBranches() []Branch {
	out := make([]Branch, len(branches))
	copy(out, branches[:])
	return out
}

// ParseBranch 解析地支字符
func ParseBranch(s string) (Branch, error) {
	b := Branch(s)
	if !b.Valid() {
		return "", fmt.Errorf("无效的地支: %q", s)
	}
	return b, nil
}

// BranchFromIndex 按序号取地支，支持任意整数取模
func BranchFromIndex(i int) Branch {
	return branches[((i%12)+12)%12]
}

// Valid 判断是否为合法地支
func (b Branch) Valid() bool {
	_, ok := branchIndex[string(b)]
	return ok
}

// Index 返回地支序号（子0 丑1 …… 亥11），非法值返回 -1
func (b Branch) Index() int {
	i, ok := branchIndex[string(b)]
	if !ok {
		return -1
	}
	return i
}

// Element 地支五行
func (b Branch) Element() Element {
	return branchElements[b.Index()]
}

// Polarity 地支阴阳，序号偶数为阳
func (b Branch) Polarity() Polarity {
	if b.Index()%2 == 0 {
		return Yang
	}
	return Yin
}

// Clash 六冲对宫支（相隔六位）
func (b Branch) Clash() Branch {
	return BranchFromIndex(b.Index() + 6)
}

// Season 地支所属季节：寅卯辰春 巳午未夏 申酉戌秋 亥子丑冬
func (b Branch) Season() Season {
	switch b {
	case BranchYin, BranchMao, BranchChen:
		return Spring
	case BranchSi, BranchWu, BranchWei:
		return Summer
	case BranchShen, BranchYou, BranchXu:
		return Autumn
	default:
		return Winter
	}
}

// Zodiac 地支对应生肖
func (b Branch) Zodiac() string {
	return zodiacs[b.Index()]
}

func (b Branch) String() string { return string(b) }
