package pcbmodel

import (
	"encoding/json"
	"sort"
	"strconv"
)

// BomRef is one reference designator within a BOM group, paired with the
// dense footprint index it came from.
type BomRef struct {
	Ref             string `json:"ref"`
	FootprintIndex  int    `json:"footprint_index"`
}

// BomGroup is a set of references sharing the same (value, footprint) key.
type BomGroup []BomRef

// BomData is the grouped bill of materials described in spec §3/§4.I.
type BomData struct {
	Both   []BomGroup
	Front  []BomGroup
	Back   []BomGroup
	Skipped []int
	Fields map[int][]string
}

func (b BomData) MarshalJSON() ([]byte, error) {
	type groupRef struct {
		Ref            string `json:"ref"`
		FootprintIndex int    `json:"footprint_index"`
	}
	toGroups := func(groups []BomGroup) [][]groupRef {
		out := make([][]groupRef, len(groups))
		for i, g := range groups {
			row := make([]groupRef, len(g))
			for j, ref := range g {
				row[j] = groupRef{ref.Ref, ref.FootprintIndex}
			}
			out[i] = row
		}
		return out
	}

	keys := make([]int, 0, len(b.Fields))
	for k := range b.Fields {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	fields := make(map[string][]string, len(keys))
	for _, k := range keys {
		fields[strconv.Itoa(k)] = b.Fields[k]
	}

	skipped := b.Skipped
	if skipped == nil {
		skipped = []int{}
	}

	return json.Marshal(struct {
		Both    [][]groupRef        `json:"both"`
		Front   [][]groupRef        `json:"front"`
		Back    [][]groupRef        `json:"back"`
		Skipped []int               `json:"skipped"`
		Fields  map[string][]string `json:"fields"`
	}{
		Both:    toGroups(b.Both),
		Front:   toGroups(b.Front),
		Back:    toGroups(b.Back),
		Skipped: skipped,
		Fields:  fields,
	})
}
