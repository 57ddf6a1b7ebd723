// Package dataset loads tabular price data and turns selected columns into
// matrices for the regression pipeline.
//
// A Frame wraps a gota DataFrame read from comma-separated values with a
// header row. Frames are not modified in place: Clean returns a new Frame.
//
// Example usage:
//
//	frame, err := dataset.ReadCSV(file)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sel := frame.DefaultSelection()
//	X, err := frame.Matrix(sel.Features)
//	y, err := frame.Vector(sel.Target)
package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
)

// utf8BOM prefixes CSV files exported by spreadsheet programs.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark so the first header keeps its
// plain name.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// MissingTokens are the cell values read as missing.
var MissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL"}

// Frame is an in-memory table with named columns.
type Frame struct {
	df dataframe.DataFrame
}

// ReadCSV parses comma-separated values with a header row.
//
// Integer and float columns are detected automatically. A column that mixes
// numbers with missing tokens such as "NA" is still numeric. Any parse
// failure, or a table without columns or rows, is a ValueError.
func ReadCSV(r io.Reader) (*Frame, error) {
	df := dataframe.ReadCSV(skipBOM(r),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
		dataframe.WithTypes(map[string]series.Type{"Date": series.String}),
	)
	if df.Err != nil {
		return nil, svrErrors.Wrap(
			svrErrors.NewValueError("dataset.ReadCSV", df.Err.Error()),
			"failed to parse CSV")
	}
	if df.Ncol() == 0 {
		return nil, svrErrors.NewValueError("dataset.ReadCSV", "no columns")
	}
	if df.Nrow() == 0 {
		return nil, svrErrors.NewValueError("dataset.ReadCSV", "no data rows")
	}

	f := &Frame{df: recoverNumeric(df)}
	log.GetLoggerWithName("dataset").Debug("CSV loaded",
		log.PhaseKey, log.PhaseIngestion,
		log.SamplesKey, f.Len(),
		"columns", f.df.Ncol(),
	)
	return f, nil
}

// FromColumns builds a Frame from numeric columns of equal length.
func FromColumns(names []string, values [][]float64) (*Frame, error) {
	if len(names) == 0 || len(names) != len(values) {
		return nil, svrErrors.NewDimensionError("dataset.FromColumns", len(names), len(values), 1)
	}
	cols := make([]series.Series, len(names))
	for i, name := range names {
		cols[i] = series.New(values[i], series.Float, name)
	}
	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, svrErrors.NewValueError("dataset.FromColumns", df.Err.Error())
	}
	if df.Nrow() == 0 {
		return nil, svrErrors.NewValueError("dataset.FromColumns", "no data rows")
	}
	return &Frame{df: df}, nil
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, svrErrors.Wrap(err, "failed to open file")
	}
	defer file.Close()
	return ReadCSV(file)
}

// recoverNumeric converts string columns whose values are all numbers or
// missing tokens into float columns.
func recoverNumeric(df dataframe.DataFrame) dataframe.DataFrame {
	for _, name := range df.Names() {
		col := df.Col(name)
		if col.Type() != series.String || name == "Date" {
			continue
		}
		records := col.Records()
		numbers := 0
		ok := true
		for _, v := range records {
			if isMissing(v) {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				ok = false
				break
			}
			numbers++
		}
		if !ok || numbers == 0 {
			continue
		}
		vals := make([]float64, len(records))
		for i, v := range records {
			if isMissing(v) {
				vals[i] = math.NaN()
				continue
			}
			vals[i], _ = strconv.ParseFloat(strings.TrimSpace(v), 64)
		}
		df = df.Mutate(series.New(vals, series.Float, name))
	}
	return df
}

func isMissing(v string) bool {
	v = strings.TrimSpace(v)
	for _, tok := range MissingTokens {
		if v == tok {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.df.Nrow() }

// Columns returns the column names in file order.
func (f *Frame) Columns() []string { return f.df.Names() }

// HasColumn reports whether name is a column.
func (f *Frame) HasColumn(name string) bool {
	for _, n := range f.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// IsNumeric reports whether name is an int or float column with at least one
// observed value.
func (f *Frame) IsNumeric(name string) bool {
	if !f.HasColumn(name) {
		return false
	}
	col := f.df.Col(name)
	if t := col.Type(); t != series.Int && t != series.Float {
		return false
	}
	for _, v := range col.Float() {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

// NumericColumns returns the numeric column names in file order.
func (f *Frame) NumericColumns() []string {
	var out []string
	for _, n := range f.df.Names() {
		if f.IsNumeric(n) {
			out = append(out, n)
		}
	}
	return out
}

// Column returns the values of a numeric column, NaN for missing entries.
func (f *Frame) Column(name string) ([]float64, error) {
	if !f.HasColumn(name) {
		return nil, svrErrors.NewValueError("dataset.Column", fmt.Sprintf("column %q not found", name))
	}
	if !f.IsNumeric(name) {
		return nil, svrErrors.NewValueError("dataset.Column", fmt.Sprintf("column %q is not numeric", name))
	}
	return f.df.Col(name).Float(), nil
}

// Strings returns the values of any column as text.
func (f *Frame) Strings(name string) ([]string, error) {
	if !f.HasColumn(name) {
		return nil, svrErrors.NewValueError("dataset.Strings", fmt.Sprintf("column %q not found", name))
	}
	return f.df.Col(name).Records(), nil
}

// Missing counts missing entries in a column.
func (f *Frame) Missing(name string) int {
	if !f.HasColumn(name) {
		return 0
	}
	n := 0
	for _, isNaN := range f.df.Col(name).IsNaN() {
		if isNaN {
			n++
		}
	}
	return n
}

// Matrix builds an n×len(names) matrix of the named columns in the given
// order. Missing values are rejected with a ValueError naming the column.
func (f *Frame) Matrix(names []string) (*mat.Dense, error) {
	if len(names) == 0 {
		return nil, svrErrors.NewValueError("dataset.Matrix", "no columns selected")
	}
	n := f.Len()
	X := mat.NewDense(n, len(names), nil)
	for j, name := range names {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		if err := checkObserved(name, col); err != nil {
			return nil, err
		}
		X.SetCol(j, col)
	}
	return X, nil
}

// Vector returns a numeric column as a vector. Missing values are rejected.
func (f *Frame) Vector(name string) (*mat.VecDense, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	if err := checkObserved(name, col); err != nil {
		return nil, err
	}
	return mat.NewVecDense(len(col), col), nil
}

func checkObserved(name string, col []float64) error {
	missing := 0
	for _, v := range col {
		if math.IsNaN(v) {
			missing++
		}
	}
	if missing > 0 {
		return svrErrors.NewValueError("dataset.Matrix",
			fmt.Sprintf("column %q has %d missing values; clean the data first", name, missing))
	}
	return nil
}

// Mean returns the mean of the observed values of a numeric column.
func (f *Frame) Mean(name string) (float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return 0, err
	}
	m, err := stats.Mean(observed(col))
	if err != nil {
		return 0, svrErrors.Wrapf(err, "mean of %q", name)
	}
	return m, nil
}

// Means returns Mean for each name, in order.
func (f *Frame) Means(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		m, err := f.Mean(name)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

func observed(col []float64) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Preview is the header and the first rows of a Frame as text.
type Preview struct {
	Columns []string
	Rows    [][]string
}

// Head returns the first n rows. Float values are printed in their shortest
// exact form.
func (f *Frame) Head(n int) Preview {
	rows := f.Len()
	if n >= 0 && n < rows {
		rows = n
	}
	names := f.df.Names()
	p := Preview{Columns: names, Rows: make([][]string, rows)}
	for i := range p.Rows {
		p.Rows[i] = make([]string, len(names))
	}
	for j, name := range names {
		col := f.df.Col(name)
		records := col.Records()
		floats := col.Float()
		for i := 0; i < rows; i++ {
			if col.Type() == series.Float && !math.IsNaN(floats[i]) {
				p.Rows[i][j] = strconv.FormatFloat(floats[i], 'f', -1, 64)
				continue
			}
			p.Rows[i][j] = records[i]
		}
	}
	return p
}

// ColumnSummary describes one numeric column.
type ColumnSummary struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Median  float64 `json:"median"`
	Max     float64 `json:"max"`
}

// Summary describes every numeric column. Std is the sample standard
// deviation, 0 for a single observation.
func (f *Frame) Summary() []ColumnSummary {
	var out []ColumnSummary
	for _, name := range f.NumericColumns() {
		col, _ := f.Column(name)
		data := observed(col)
		s := ColumnSummary{Name: name, Count: len(data), Missing: len(col) - len(data)}
		s.Mean, _ = stats.Mean(data)
		s.Min, _ = stats.Min(data)
		s.Max, _ = stats.Max(data)
		s.Median, _ = stats.Median(data)
		if len(data) > 1 {
			s.Std, _ = stats.StandardDeviationSample(data)
		}
		out = append(out, s)
	}
	return out
}
