package addrmap

// New constructs a fresh, unconfigured Mapper for one of the six
// registered scheme names (spec.md §6). Call Setup before Apply.
// Registration by string name is a factory concern layered on top of
// the core scheme types in linear.go and with_rit.go, not itself part
// of the mapping logic.
func New(name string) (Mapper, bool) {
	switch name {
	case "ChRaBaRoCo":
		return &ChRaBaRoCo{}, true
	case "RoBaRaCoCh":
		return &RoBaRaCoCh{}, true
	case "MOP4CLXOR":
		return &MOP4CLXOR{}, true
	case "ChRaBaRoCo_with_rit":
		return &ChRaBaRoCoWithRIT{}, true
	case "RoBaRaCoCh_with_rit":
		return &RoBaRaCoChWithRIT{}, true
	case "MOP4CLXOR_with_rit":
		return &MOP4CLXORWithRIT{}, true
	default:
		return nil, false
	}
}
