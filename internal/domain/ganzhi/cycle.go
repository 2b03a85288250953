package ganzhi

import "fmt"

// CycleSize 六十甲子周期长度
const CycleSize = 60

// CycleIndex 计算干支组合在六十甲子中的序号（甲子0 …… 癸亥59）。
// 天干地支阴阳不同位时组合不存在，返回错误。
func CycleIndex(s Stem, b Branch) (int, error) {
	si, bi := s.Index(), b.Index()
	if si < 0 || bi < 0 {
		return 0, fmt.Errorf("无效的干支组合: %s%s", s, b)
	}
	if si%2 != bi%2 {
		return 0, fmt.Errorf("干支阴阳不配: %s%s", s, b)
	}
	for n := si; n < CycleSize; n += 10 {
		if n%12 == bi {
			return n, nil
		}
	}
	return 0, fmt.Errorf("干支组合不在六十甲子中: %s%s", s, b)
}

// CycleFromIndex 按序号取六十甲子干支，支持任意整数取模
func CycleFromIndex(i int) (Stem, Branch) {
	n := ((i % CycleSize) + CycleSize) % CycleSize
	return StemFromIndex(n), BranchFromIndex(n)
}

// CycleName 六十甲子名称，如 0 -> 甲子
func CycleName(i int) string {
	s, b := CycleFromIndex(i)
	return string(s) + string(b)
}
