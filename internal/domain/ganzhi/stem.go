package ganzhi

import "fmt"

// Stem 天干
type Stem string

const (
	StemJia  Stem = "甲"
	StemYi   Stem = "乙"
	StemBing Stem = "丙"
	StemDing Stem = "丁"
	StemWu   Stem = "戊"
	StemJi   Stem = "己"
	StemGeng Stem = "庚"
	StemXin  Stem = "辛"
	StemRen  Stem = "壬"
	StemGui  Stem = "癸"
)

var stems = [...]Stem{
	StemJia, StemYi, StemBing, StemDing, StemWu,
	StemJi, StemGeng, StemXin, StemRen, StemGui,
}

var stemIndex = buildIndex(stems[:])

// 天干五合：甲己合土 乙庚合金 丙辛合水 丁壬合木 戊癸合火
var stemCombinations = map[[2]Stem]Element{
	{StemJia, StemJi}:   Earth,
	{StemYi, StemGeng}:  Metal,
	{StemBing, StemXin}: Water,
	{StemDing, StemRen}: Wood,
	{StemWu, StemGui}:   Fire,
}

// 天干四冲：甲庚 乙辛 丙壬 丁癸
var stemClashes = map[[2]Stem]struct{}{
	{StemJia, StemGeng}: {},
	{StemYi, StemXin}:   {},
	{StemBing, StemRen}: {},
	{StemDing, StemGui}: {},
}

// AllStems 按甲至癸顺序返回十天干
func AllStems() []Stem {
	out := make([]Stem, len(stems))
	copy(out, stems[:])
	return out
}

// ParseStem 解析天干字符
func ParseStem(s string) (Stem, error) {
	st := Stem(s)
	if !st.Valid() {
		return "", fmt.Errorf("无效的天干: %q", s)
	}
	return st, nil
}

// StemFromIndex 按序号取天干，支持任意整数取模
func StemFromIndex(i int) Stem {
	return stems[((i%10)+10)%10]
}

// Valid 判断是否为合法天干
func (s Stem) Valid() bool {
	_, ok := stemIndex[string(s)]
	return ok
}

// Index 返回天干序号（甲0 乙1 …… 癸9），非法值返回 -1
func (s Stem) Index() int {
	i, ok := stemIndex[string(s)]
	if !ok {
		return -1
	}
	return i
}

// Element 天干五行：甲乙木 丙丁火 戊己土 庚辛金 壬癸水
func (s Stem) Element() Element {
	return elements[s.Index()/2]
}

// Polarity 天干阴阳，序号偶数为阳
func (s Stem) Polarity() Polarity {
	if s.Index()%2 == 0 {
		return Yang
	}
	return Yin
}

// CombinesWith 天干五合，返回合化五行
func (s Stem) CombinesWith(o Stem) (Element, bool) {
	if e, ok := stemCombinations[[2]Stem{s, o}]; ok {
		return e, true
	}
	if e, ok := stemCombinations[[2]Stem{o, s}]; ok {
		return e, true
	}
	return "", false
}

// ClashesWith 天干相冲
func (s Stem) ClashesWith(o Stem) bool {
	if _, ok := stemClashes[[2]Stem{s, o}]; ok {
		return true
	}
	_, ok := stemClashes[[2]Stem{o, s}]
	return ok
}

// Overcomes 天干相克，按五行克制关系判断
func (s Stem) Overcomes(o Stem) bool {
	return s.Element().Controls() == o.Element()
}

func (s Stem) String() string { return string(s) }

func buildIndex[T ~string](items []T) map[string]int {
	m := make(map[string]int, len(items))
	for i, it := range items {
		m[string(it)] = i
	}
	return m
}
