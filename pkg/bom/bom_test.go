package bom

import (
	"testing"

	"github.com/gopcb/pcbextract/pkg/pcbmodel"
)

func TestBuildGroupsBySideAndNaturalSort(t *testing.T) {
	footprints := []pcbmodel.Footprint{
		{Layer: pcbmodel.SideFront},
		{Layer: pcbmodel.SideFront},
		{Layer: pcbmodel.SideBack},
	}
	components := []pcbmodel.Component{
		{Ref: "R10", Value: "10k", FootprintName: "0603"},
		{Ref: "R2", Value: "10k", FootprintName: "0603"},
		{Ref: "C1", Value: "1uF", FootprintName: "0402"},
	}

	bomData := Build(footprints, components, Config{})

	if len(bomData.Both) != 2 {
		t.Fatalf("both groups = %d, want 2", len(bomData.Both))
	}
	// Groups sort by their first member's natural key: "C1" < "R2", so the
	// 1uF/C1 group comes first, then 10k's R2/R10 (R10/R2 sorted within the
	// group as R2 < R10 despite appearing in R10, R2 input order).
	if len(bomData.Both[0]) != 1 || bomData.Both[0][0].Ref != "C1" {
		t.Errorf("group 0 = %+v, want [C1]", bomData.Both[0])
	}
	r10k := bomData.Both[1]
	if len(r10k) != 2 || r10k[0].Ref != "R2" || r10k[1].Ref != "R10" {
		t.Errorf("10k group = %+v, want [R2 R10]", r10k)
	}

	if len(bomData.Front) != 1 || len(bomData.Front[0]) != 2 {
		t.Errorf("front = %+v, want one group of 2", bomData.Front)
	}
	if len(bomData.Back) != 1 || bomData.Back[0][0].Ref != "C1" {
		t.Errorf("back = %+v, want [[C1]]", bomData.Back)
	}
}

func TestBuildSkipsVirtualByDefault(t *testing.T) {
	footprints := []pcbmodel.Footprint{{Layer: pcbmodel.SideFront}, {Layer: pcbmodel.SideFront}}
	components := []pcbmodel.Component{
		{Ref: "R1", Value: "1k", FootprintName: "0603"},
		{Ref: "TP1", Value: "", FootprintName: "TestPoint", Attr: []string{"virtual"}},
	}

	bomData := Build(footprints, components, Config{})

	if len(bomData.Skipped) != 1 || bomData.Skipped[0] != 1 {
		t.Errorf("skipped = %+v, want [1]", bomData.Skipped)
	}
	if len(bomData.Both) != 1 || bomData.Both[0][0].Ref != "R1" {
		t.Errorf("both = %+v, want only R1's group", bomData.Both)
	}
}

func TestBuildSkipRefsPrefix(t *testing.T) {
	footprints := []pcbmodel.Footprint{{Layer: pcbmodel.SideFront}, {Layer: pcbmodel.SideFront}}
	components := []pcbmodel.Component{
		{Ref: "R1", Value: "1k", FootprintName: "0603"},
		{Ref: "MH1", Value: "", FootprintName: "Mount"},
	}

	bomData := Build(footprints, components, Config{SkipRefs: []string{"MH"}})

	if len(bomData.Skipped) != 1 || bomData.Skipped[0] != 1 {
		t.Errorf("skipped = %+v, want [1]", bomData.Skipped)
	}
}

func TestBuildFieldsSelectsNamedColumns(t *testing.T) {
	footprints := []pcbmodel.Footprint{{Layer: pcbmodel.SideFront}}
	components := []pcbmodel.Component{
		{Ref: "R1", Value: "1k", FootprintName: "0603", Fields: map[string]string{"MPN": "RC0603FR"}},
	}

	bomData := Build(footprints, components, Config{Fields: []string{"Value", "Footprint", "MPN"}})

	got := bomData.Fields[0]
	want := []string{"1k", "0603", "RC0603FR"}
	if len(got) != len(want) {
		t.Fatalf("fields[0] = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fields[0][%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizedDefaults(t *testing.T) {
	cfg := Config{}.Normalized()
	if len(cfg.Fields) != 2 || cfg.Fields[0] != "Value" || cfg.Fields[1] != "Footprint" {
		t.Errorf("default fields = %+v", cfg.Fields)
	}
	if len(cfg.SkipAttrs) != 1 || cfg.SkipAttrs[0] != "virtual" {
		t.Errorf("default skip attrs = %+v", cfg.SkipAttrs)
	}
}
