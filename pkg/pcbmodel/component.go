package pcbmodel

// Component carries the BOM-relevant facts about one placed footprint that
// don't belong in the board geometry itself: its value, library footprint
// name, and any extra named fields a format exposes (KiCad properties,
// EasyEDA C_* fields, Eagle attributes). Every parser emits one Component
// per Footprint at the same index; the BOM builder (pkg/bom) consumes the
// pair to build BomData.
type Component struct {
	Ref           string
	Value         string
	FootprintName string
	Layer         Side
	Attr          []string
	Fields        map[string]string
}

// HasAttr reports whether the component carries a given attribute atom.
func (c Component) HasAttr(attr string) bool {
	for _, a := range c.Attr {
		if a == attr {
			return true
		}
	}
	return false
}
