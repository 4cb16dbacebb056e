package series

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Supported file formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var hundred = decimal.NewFromInt(100)

// Options controls how a return file is decoded.
type Options struct {
	Format       string // csv|json; empty picks by file extension
	TimeColumn   string // CSV header of the timestamp column; missing column means unindexed
	ReturnColumn string // CSV header of the return column
	TimeLayout   string // time.Parse layout, RFC3339 when empty
	Percent      bool   // values are percentages (1.5 means 0.015)
}

// DefaultOptions returns the column names used when none are configured.
func DefaultOptions() Options {
	return Options{
		TimeColumn:   "time",
		ReturnColumn: "return",
		TimeLayout:   time.RFC3339,
	}
}

// LoadFile reads a return series from path. The series is named after the
// file and validated before it is returned.
func LoadFile(path string, opts Options) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("series: open %s: %w", path, err)
	}
	defer f.Close()

	format := opts.Format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}

	var s Series
	switch format {
	case FormatCSV:
		s, err = ReadCSV(f, opts)
	case FormatJSON:
		s, err = ReadJSON(f, opts)
	default:
		return Series{}, fmt.Errorf("%w: unknown format %q for %s", ErrInvalidSeries, format, path)
	}
	if err != nil {
		return Series{}, err
	}

	s.Name = filepath.Base(path)
	if err := s.Validate(); err != nil {
		return Series{}, err
	}

	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("points", s.Len()).
		Bool("indexed", s.Indexed()).
		Msg("series: loaded")

	return s, nil
}

// ReadCSV decodes a CSV file with a header row. The return column is
// required; the time column is optional.
func ReadCSV(r io.Reader, opts Options) (Series, error) {
	opts = withDefaults(opts)

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Series{}, fmt.Errorf("%w: missing header row", ErrInvalidSeries)
		}
		return Series{}, fmt.Errorf("series: read csv header: %w", err)
	}

	timeIdx, retIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case opts.TimeColumn:
			timeIdx = i
		case opts.ReturnColumn:
			retIdx = i
		}
	}
	if retIdx < 0 {
		return Series{}, fmt.Errorf("%w: no %q column in header %v", ErrInvalidSeries, opts.ReturnColumn, header)
	}

	var s Series
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("series: read csv row %d: %w", row, err)
		}

		var p Point
		p.Value, err = ParseReturn(rec[retIdx], opts.Percent)
		if err != nil {
			return Series{}, fmt.Errorf("row %d: %w", row, err)
		}
		if timeIdx >= 0 {
			p.Time, err = time.Parse(opts.TimeLayout, strings.TrimSpace(rec[timeIdx]))
			if err != nil {
				return Series{}, fmt.Errorf("%w: row %d: %v", ErrInvalidSeries, row, err)
			}
		}
		s.Points = append(s.Points, p)
	}

	return s, nil
}

// jsonPoint accepts the return as a JSON number or a decimal string.
type jsonPoint struct {
	Time   string          `json:"time"`
	Return json.RawMessage `json:"return"`
}

// ReadJSON decodes an array of {"time": ..., "return": ...} objects.
func ReadJSON(r io.Reader, opts Options) (Series, error) {
	opts = withDefaults(opts)

	var raw []jsonPoint
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Series{}, fmt.Errorf("%w: decode json: %v", ErrInvalidSeries, err)
	}

	s := Series{Points: make([]Point, 0, len(raw))}
	for i, jp := range raw {
		if len(jp.Return) == 0 {
			return Series{}, fmt.Errorf("%w: element %d has no return", ErrInvalidSeries, i)
		}
		text := strings.Trim(string(jp.Return), `"`)

		var p Point
		var err error
		p.Value, err = ParseReturn(text, opts.Percent)
		if err != nil {
			return Series{}, fmt.Errorf("element %d: %w", i, err)
		}
		if jp.Time != "" {
			p.Time, err = time.Parse(opts.TimeLayout, jp.Time)
			if err != nil {
				return Series{}, fmt.Errorf("%w: element %d: %v", ErrInvalidSeries, i, err)
			}
		}
		s.Points = append(s.Points, p)
	}

	return s, nil
}

// ParseReturn parses a decimal return such as "0.0125" or "1.25%". A trailing
// percent sign, or percent=true, divides the value by 100. The division is
// done in decimal so "1.25%" yields exactly the float nearest 0.0125.
func ParseReturn(text string, percent bool) (float64, error) {
	text = strings.TrimSpace(text)
	if strings.HasSuffix(text, "%") {
		percent = true
		text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("%w: return %q is not numeric", ErrInvalidSeries, text)
	}
	if percent {
		d = d.Div(hundred)
	}
	return d.InexactFloat64(), nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.TimeColumn == "" {
		opts.TimeColumn = def.TimeColumn
	}
	if opts.ReturnColumn == "" {
		opts.ReturnColumn = def.ReturnColumn
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = def.TimeLayout
	}
	return opts
}
