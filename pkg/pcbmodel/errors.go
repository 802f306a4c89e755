package pcbmodel

import "fmt"

// UnsupportedFormatError indicates a caller-provided format tag, or an
// auto-detected file extension, has no matching parser (spec's
// UnsupportedFormat error kind).
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", e.Format)
}

// IOError wraps an underlying byte-read failure (spec's Io error kind).
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error reading %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("io error: %v", e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError indicates a structural decode failure: bad S-expression,
// invalid XML, malformed CFB, bad GDSII record length, "no Gerber files
// in zip", and similar whole-file defects (spec's Parse error kind).
type ParseError struct {
	Format   string
	Location string
	Err      error
}

func (e *ParseError) Error() string {
	loc := e.Location
	if loc != "" {
		loc = " at " + loc
	}
	if e.Err != nil {
		return fmt.Sprintf("%s parse error%s: %v", e.Format, loc, e.Err)
	}
	return fmt.Sprintf("%s parse error%s", e.Format, loc)
}

func (e *ParseError) Unwrap() error { return e.Err }

// JSONError indicates EasyEDA input that is not well-formed JSON, or is
// well-formed but not a PCB document (spec's Json error kind).
type JSONError struct {
	Reason string
	Err    error
}

func (e *JSONError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("json error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("json error: %s", e.Reason)
}

func (e *JSONError) Unwrap() error { return e.Err }

// ZipError indicates a Gerber bundle's ZIP container itself could not be
// opened or read (spec's Zip error kind) — distinct from ParseError,
// which covers a ZIP that opens fine but carries no usable Gerber data.
type ZipError struct {
	Err error
}

func (e *ZipError) Error() string {
	return fmt.Sprintf("zip error: %v", e.Err)
}

func (e *ZipError) Unwrap() error { return e.Err }
