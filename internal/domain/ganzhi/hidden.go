package ganzhi

// Role 藏干地位，按本氣中氣餘氣排列
type Role string

const (
	RoleBenQi Role = "本氣"
	RoleZhong Role = "中氣"
	RoleYu    Role = "餘氣"
)

// Weight 藏干权重：本氣1.0 中氣0.5 餘氣0.3
func (r Role) Weight() float64 {
	switch r {
	case RoleBenQi:
		return 1.0
	case RoleZhong:
		return 0.5
	default:
		return 0.3
	}
}

func (r Role) String() string { return string(r) }

// HiddenStem 地支藏干条目
type HiddenStem struct {
	Stem   Stem    `json:"stem"`
	Role   Role    `json:"role"`
	Weight float64 `json:"weight"`
}

// 地支藏干表，每支首位为本氣
var hiddenStems = map[Branch][]Stem{
	BranchZi:   {StemGui},
	BranchChou: {StemJi, StemGui, StemXin},
	BranchYin:  {StemJia, StemBing, StemWu},
	BranchMao:  {StemYi},
	BranchChen: {StemWu, StemYi, StemGui},
	BranchSi:   {StemBing, StemWu, StemGeng},
	BranchWu:   {StemDing, StemJi},
	BranchWei:  {StemJi, StemDing, StemYi},
	BranchShen: {StemGeng, StemRen, StemWu},
	BranchYou:  {StemXin},
	BranchXu:   {StemWu, StemXin, StemDing},
	BranchHai:  {StemRen, StemJia},
}

var hiddenRoles = [...]Role{RoleBenQi, RoleZhong, RoleYu}

// HiddenStems 返回地支藏干，按本氣中氣餘氣排序
func (b Branch) HiddenStems() []HiddenStem {
	raw := hiddenStems[b]
	out := make([]HiddenStem, len(raw))
	for i, s := range raw {
		role := hiddenRoles[i]
		out[i] = HiddenStem{Stem: s, Role: role, Weight: role.Weight()}
	}
	return out
}

// PrincipalStem 地支本氣藏干
func (b Branch) PrincipalStem() Stem {
	return hiddenStems[b][0]
}
