package pcbmodel

import "encoding/json"

// DrawingSet groups silkscreen or fabrication drawings by layer data.
type DrawingSet struct {
	Silkscreen LayerData[[]Drawing]
	Fabrication LayerData[[]Drawing]
}

// PcbData is the root artifact produced by every format parser: board
// outline, per-side drawings, footprints, metadata, and the optional
// tracks/zones/nets/copper_pads/bom requested via ExtractOptions.
type PcbData struct {
	EdgesBBox BoundingBox
	Edges     []Drawing
	Drawings  DrawingSet
	Footprints []Footprint
	Metadata   Metadata

	HasBom bool
	Bom    BomData

	HasTracks bool
	Tracks    LayerData[[]Track]

	HasZones bool
	Zones    LayerData[[]Zone]

	HasNets bool
	Nets    []string

	HasCopperPads bool
	CopperPads    LayerData[[]Drawing]

	HasFontData bool
	FontData    json.RawMessage
}

// NewPcbData returns a PcbData with an empty accumulating bounding box and
// initialized inner-layer maps, ready for a parser to populate in place.
func NewPcbData() *PcbData {
	return &PcbData{
		EdgesBBox: EmptyBoundingBox(),
		Drawings: DrawingSet{
			Silkscreen:  NewLayerData[[]Drawing](),
			Fabrication: NewLayerData[[]Drawing](),
		},
	}
}

func layerDataToJSON[T any](l LayerData[T]) map[string]any {
	m := map[string]any{
		"F": l.F,
		"B": l.B,
	}
	for k, v := range l.Inner {
		m[k] = v
	}
	return m
}

func (d DrawingSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"silkscreen":  layerDataToJSON(d.Silkscreen),
		"fabrication": layerDataToJSON(d.Fabrication),
	})
}

func (p PcbData) MarshalJSON() ([]byte, error) {
	edges := p.Edges
	if edges == nil {
		edges = []Drawing{}
	}
	footprints := p.Footprints
	if footprints == nil {
		footprints = []Footprint{}
	}
	m := map[string]any{
		"edges_bbox": p.EdgesBBox,
		"edges":      edges,
		"drawings":   p.Drawings,
		"footprints": footprints,
		"metadata":   p.Metadata,
	}
	if p.HasBom {
		m["bom"] = p.Bom
	}
	if p.HasTracks {
		m["tracks"] = layerDataToJSON(p.Tracks)
	}
	if p.HasZones {
		m["zones"] = layerDataToJSON(p.Zones)
	}
	if p.HasNets {
		nets := p.Nets
		if nets == nil {
			nets = []string{}
		}
		m["nets"] = nets
	}
	if p.HasCopperPads {
		m["copper_pads"] = layerDataToJSON(p.CopperPads)
	}
	if p.HasFontData {
		m["font_data"] = p.FontData
	}
	return json.Marshal(m)
}
