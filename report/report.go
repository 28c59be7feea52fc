// Package report renders merged results as the sorted station summary.
package report

import (
	"io"
	"maps"
	"slices"

	"github.com/emptyOVO/brckit-go/agg"
	"github.com/emptyOVO/brckit-go/fixedpoint"
)

// Row is one station of the final report. Min, Mean and Max are tenths;
// Mean is already rounded.
type Row struct {
	Station string
	Min     int64
	Mean    int64
	Max     int64
	Count   uint64
}

// Rows returns r as rows sorted by the raw bytes of the station name.
func Rows(r agg.Result) []Row {
	keys := slices.Sorted(maps.Keys(r))
	rows := make([]Row, 0, len(keys))
	for _, k := range keys {
		s := r[k]
		rows = append(rows, Row{
			Station: k,
			Min:     s.Min,
			Mean:    fixedpoint.Mean(s.Sum, s.Count),
			Max:     s.Max,
			Count:   s.Count,
		})
	}
	return rows
}

// Append appends the report line for rows, newline included, to dst.
func Append(dst []byte, rows []Row) []byte {
	dst = append(dst, '{')
	for i, row := range rows {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		dst = append(dst, row.Station...)
		dst = append(dst, '=')
		dst = fixedpoint.AppendFormat(dst, row.Min)
		dst = append(dst, '/')
		dst = fixedpoint.AppendFormat(dst, row.Mean)
		dst = append(dst, '/')
		dst = fixedpoint.AppendFormat(dst, row.Max)
	}
	return append(dst, '}', '\n')
}

// Format renders r as "{A=min/mean/max, B=...}\n".
func Format(r agg.Result) string {
	return string(Append(nil, Rows(r)))
}

// Write writes the report line for r to w in one call.
func Write(w io.Writer, r agg.Result) error {
	_, err := w.Write(Append(nil, Rows(r)))
	return err
}
