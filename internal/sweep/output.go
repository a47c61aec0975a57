package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVWriter writes sweep results as two CSV streams: a long-format raw stream
// with one row per (metric, series, std, point count) and a summary stream
// with one row per (metric, series, std).
type CSVWriter struct {
	RunID   string
	Summary *csv.Writer
	Raw     *csv.Writer
}

// NewCSVWriter creates a CSVWriter tagging every row with runID.
func NewCSVWriter(runID string, summary, raw io.Writer) *CSVWriter {
	return &CSVWriter{
		RunID:   runID,
		Summary: csv.NewWriter(summary),
		Raw:     csv.NewWriter(raw),
	}
}

// FormatSummaryHeaders returns the summary column names.
func FormatSummaryHeaders() []string {
	return []string{"run_id", "metric", "series", "linestyle", "std", "samples", "mean", "stddev", "first", "last"}
}

// FormatRawHeaders returns the raw column names.
func FormatRawHeaders() []string {
	return []string{"run_id", "metric", "series", "linestyle", "std", "point_count", "value"}
}

// WriteHeaders writes the header row of both streams.
func (c *CSVWriter) WriteHeaders() error {
	if err := c.Summary.Write(FormatSummaryHeaders()); err != nil {
		return err
	}
	return c.Raw.Write(FormatRawHeaders())
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// WriteSeries writes one error series to both streams and flushes them.
func (c *CSVWriter) WriteSeries(s ErrorSeries) error {
	prefix := []string{c.RunID, string(s.Metric), s.Key.Name, s.Key.LineStyle, formatFloat(s.Std)}

	for i, v := range s.Values {
		row := append(append([]string(nil), prefix...), strconv.Itoa(s.PointCounts[i]), formatFloat(v))
		if err := c.Raw.Write(row); err != nil {
			return fmt.Errorf("writing raw row: %w", err)
		}
	}

	mean, stddev := MeanStddev(s.Values)
	first, last := "", ""
	if n := len(s.Values); n > 0 {
		first, last = formatFloat(s.Values[0]), formatFloat(s.Values[n-1])
	}
	row := append(prefix, strconv.Itoa(len(s.Values)), formatFloat(mean), formatFloat(stddev), first, last)
	if err := c.Summary.Write(row); err != nil {
		return fmt.Errorf("writing summary row: %w", err)
	}
	return c.Flush()
}

// WriteResult writes every series of every metric in Metrics order.
func (c *CSVWriter) WriteResult(r Result) error {
	for _, m := range Metrics {
		for _, s := range r[m] {
			if err := c.WriteSeries(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes both writers and reports the first write error.
func (c *CSVWriter) Flush() error {
	c.Summary.Flush()
	c.Raw.Flush()
	if err := c.Summary.Error(); err != nil {
		return err
	}
	return c.Raw.Error()
}
