// Package bom builds the grouped bill of materials every vendor parser
// shares (spec §4.I): given the footprints and their BOM-relevant
// components, group by (value, footprint name), split by board side, and
// order both groups and in-group references by natural-sort key.
//
// Grounded on the teacher's layer/net indexing style (pkg/kicad/pcb) for
// the "build an index, then walk once" shape; there is no teacher BOM
// analogue, so the grouping/sorting algorithm is new code written in that
// idiom.
package bom

import (
	"sort"
	"strings"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

// Config controls field selection and skip rules. Zero value uses the
// spec's stated defaults via Normalized.
type Config struct {
	Fields    []string
	SkipAttrs []string
	SkipRefs  []string
}

// Normalized returns cfg with the §4.I defaults applied to empty fields.
func (cfg Config) Normalized() Config {
	if cfg.Fields == nil {
		cfg.Fields = []string{"Value", "Footprint"}
	}
	if cfg.SkipAttrs == nil {
		cfg.SkipAttrs = []string{"virtual"}
	}
	return cfg
}

// Build groups footprints[i]/components[i] pairs into a BomData. footprints
// and components must be parallel (same length, same index meaning).
func Build(footprints []pcbmodel.Footprint, components []pcbmodel.Component, cfg Config) pcbmodel.BomData {
	cfg = cfg.Normalized()

	fields := map[int][]string{}
	for i, c := range components {
		values := make([]string, len(cfg.Fields))
		for j, name := range cfg.Fields {
			switch name {
			case "Value":
				values[j] = c.Value
			case "Footprint":
				values[j] = c.FootprintName
			default:
				values[j] = c.Fields[name]
			}
		}
		fields[i] = values
	}

	type groupKey struct {
		value     string
		footprint string
	}
	var order []groupKey
	seen := map[groupKey]bool{}
	members := map[groupKey][]int{}
	var skipped []int

	for i, c := range components {
		if isSkipped(c, cfg) {
			skipped = append(skipped, i)
			continue
		}
		key := groupKey{c.Value, c.FootprintName}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
		members[key] = append(members[key], i)
	}

	buildGroups := func(filter func(i int) bool) []pcbmodel.BomGroup {
		var groups []pcbmodel.BomGroup
		for _, key := range order {
			var refs []pcbmodel.BomRef
			for _, idx := range members[key] {
				if filter == nil || filter(idx) {
					refs = append(refs, pcbmodel.BomRef{Ref: components[idx].Ref, FootprintIndex: idx})
				}
			}
			if len(refs) == 0 {
				continue
			}
			sortRefs(refs)
			groups = append(groups, pcbmodel.BomGroup(refs))
		}
		sortGroups(groups)
		return groups
	}

	both := buildGroups(nil)
	front := buildGroups(func(i int) bool { return footprints[i].Layer == pcbmodel.SideFront })
	back := buildGroups(func(i int) bool { return footprints[i].Layer == pcbmodel.SideBack })

	return pcbmodel.BomData{
		Both:    both,
		Front:   front,
		Back:    back,
		Skipped: skipped,
		Fields:  fields,
	}
}

func isSkipped(c pcbmodel.Component, cfg Config) bool {
	for _, attr := range cfg.SkipAttrs {
		if c.HasAttr(attr) {
			return true
		}
	}
	for _, prefix := range cfg.SkipRefs {
		if prefix != "" && strings.HasPrefix(c.Ref, prefix) {
			return true
		}
	}
	return false
}

func sortRefs(refs []pcbmodel.BomRef) {
	sort.Slice(refs, func(i, j int) bool {
		return pcbmodel.NaturalSortKey(refs[i].Ref).Less(pcbmodel.NaturalSortKey(refs[j].Ref))
	})
}

func sortGroups(groups []pcbmodel.BomGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i]) == 0 || len(groups[j]) == 0 {
			return len(groups[i]) < len(groups[j])
		}
		return pcbmodel.NaturalSortKey(groups[i][0].Ref).Less(pcbmodel.NaturalSortKey(groups[j][0].Ref))
	})
}
