package gerber

import "math"

// coordinateFormat holds the integer/decimal digit counts from an FS
// command, per axis. Gerber almost always uses the same split for X and Y
// (e.g. "FSLAX24Y24" -> 2 integer, 4 decimal digits both axes) but the
// format allows them to differ.
type coordinateFormat struct {
	xInteger, xDecimal int
	yInteger, yDecimal int
}

func defaultCoordinateFormat() coordinateFormat {
	return coordinateFormat{xInteger: 2, xDecimal: 4, yInteger: 2, yDecimal: 4}
}

type units int

const (
	unitsMillimeters units = iota
	unitsInches
)

// coordinateConverter turns a raw fixed-point Gerber coordinate into
// millimeters, honoring the active format spec and unit mode.
type coordinateConverter struct {
	format coordinateFormat
	units  units
}

func defaultCoordinateConverter() coordinateConverter {
	return coordinateConverter{format: defaultCoordinateFormat(), units: unitsMillimeters}
}

func (c coordinateConverter) toMM(raw int64, isX bool) float64 {
	decimalDigits := c.format.xDecimal
	if !isX {
		decimalDigits = c.format.yDecimal
	}
	v := float64(raw) / math.Pow(10, float64(decimalDigits))
	if c.units == unitsInches {
		v *= 25.4
	}
	return v
}
