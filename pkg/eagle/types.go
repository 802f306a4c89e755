package eagle

import "encoding/xml"

// The decode-target structs below mirror Eagle's .brd/.fbrd XML schema
// closely enough to extract what spec §4.E needs; unrelated elements
// (descriptions, design rules, autorouter passes) are left unmapped and
// simply ignored by encoding/xml.

type document struct {
	Board boardXML `xml:"drawing>board"`
}

type boardXML struct {
	Libraries []libraryXML `xml:"libraries>library"`
	Elements  []elementXML `xml:"elements>element"`
	Plain     plainXML     `xml:"plain"`
	Signals   []signalXML  `xml:"signals>signal"`
}

type libraryXML struct {
	Name     string       `xml:"name,attr"`
	Packages []packageXML `xml:"packages>package"`
}

type packageXML struct {
	Name    string      `xml:"name,attr"`
	Pads    []padXML    `xml:"pad"`
	Smds    []smdXML    `xml:"smd"`
	Wires   []wireXML   `xml:"wire"`
	Circles []circleXML `xml:"circle"`
	Rects   []rectXML   `xml:"rectangle"`
}

type padXML struct {
	Name     string  `xml:"name,attr"`
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Drill    float64 `xml:"drill,attr"`
	Diameter float64 `xml:"diameter,attr"`
	Shape    string  `xml:"shape,attr"`
}

type smdXML struct {
	Name      string  `xml:"name,attr"`
	X         float64 `xml:"x,attr"`
	Y         float64 `xml:"y,attr"`
	Dx        float64 `xml:"dx,attr"`
	Dy        float64 `xml:"dy,attr"`
	Layer     int     `xml:"layer,attr"`
	Roundness float64 `xml:"roundness,attr"`
}

type wireXML struct {
	X1     float64 `xml:"x1,attr"`
	Y1     float64 `xml:"y1,attr"`
	X2     float64 `xml:"x2,attr"`
	Y2     float64 `xml:"y2,attr"`
	Width  float64 `xml:"width,attr"`
	Layer  int     `xml:"layer,attr"`
}

type circleXML struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Radius float64 `xml:"radius,attr"`
	Width  float64 `xml:"width,attr"`
	Layer  int     `xml:"layer,attr"`
}

type rectXML struct {
	X1    float64 `xml:"x1,attr"`
	Y1    float64 `xml:"y1,attr"`
	X2    float64 `xml:"x2,attr"`
	Y2    float64 `xml:"y2,attr"`
	Layer int     `xml:"layer,attr"`
}

type elementXML struct {
	Name    string  `xml:"name,attr"`
	Value   string  `xml:"value,attr"`
	Library string  `xml:"library,attr"`
	Package string  `xml:"package,attr"`
	X       float64 `xml:"x,attr"`
	Y       float64 `xml:"y,attr"`
	Rot     string  `xml:"rot,attr"`
}

type plainXML struct {
	Wires   []wireXML   `xml:"wire"`
	Circles []circleXML `xml:"circle"`
	Rects   []rectXML   `xml:"rectangle"`
}

type signalXML struct {
	Name  string    `xml:"name,attr"`
	Wires []wireXML `xml:"wire"`
	Vias  []viaXML  `xml:"via"`
}

type viaXML struct {
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Drill    float64 `xml:"drill,attr"`
	Diameter float64 `xml:"diameter,attr"`
}

func unmarshal(data []byte) (boardXML, error) {
	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return boardXML{}, err
	}
	return doc.Board, nil
}
