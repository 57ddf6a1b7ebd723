package dataset

import (
	"strings"
	"time"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/preprocessing"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
)

// CleanOptions configures Frame.Clean.
type CleanOptions struct {
	// DropColumn is removed when present
	DropColumn string `mapstructure:"drop_column"`
	// DateColumn is re-formatted with DateLayout when present
	DateColumn string `mapstructure:"date_column"`
	DateLayout string `mapstructure:"date_layout"`
	// FillColumns get missing values replaced with the column mean
	FillColumns []string `mapstructure:"fill_columns"`
}

// DefaultCleanOptions drops "Adj Close", writes dates as day-month-year and
// mean-fills the price and volume columns.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		DropColumn:  "Adj Close",
		DateColumn:  "Date",
		DateLayout:  "02-01-2006",
		FillColumns: []string{"Open", "High", "Low", "Close", "Volume"},
	}
}

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// CleanReport records what Clean changed.
type CleanReport struct {
	Dropped         string             `json:"dropped,omitempty"`
	DatesNormalized int                `json:"dates_normalized"`
	DatesUnparsed   int                `json:"dates_unparsed"`
	Filled          map[string]int     `json:"filled"`
	FillValues      map[string]float64 `json:"fill_values"`
}

// Clean returns a cleaned copy of f.
//
// Missing values in each numeric fill column are replaced with the mean of
// that column's observed entries. This is a static fill, the same value for
// every gap. Date values that match none of the known layouts are kept as is.
func (f *Frame) Clean(opts CleanOptions) (*Frame, CleanReport, error) {
	df := f.df
	report := CleanReport{Filled: map[string]int{}, FillValues: map[string]float64{}}

	if opts.DropColumn != "" && f.HasColumn(opts.DropColumn) {
		df = df.Drop(opts.DropColumn)
		if df.Err != nil {
			return nil, report, svrErrors.Wrap(df.Err, "drop column")
		}
		report.Dropped = opts.DropColumn
	}
	out := &Frame{df: df}

	if opts.DateColumn != "" && out.HasColumn(opts.DateColumn) {
		layout := opts.DateLayout
		if layout == "" {
			layout = DefaultCleanOptions().DateLayout
		}
		raw := df.Col(opts.DateColumn).Records()
		formatted := make([]string, len(raw))
		for i, v := range raw {
			formatted[i] = v
			if t, ok := parseDate(v); ok {
				formatted[i] = t.Format(layout)
				report.DatesNormalized++
			} else if !isMissing(v) {
				report.DatesUnparsed++
			}
		}
		df = df.Mutate(series.New(formatted, series.String, opts.DateColumn))
		if df.Err != nil {
			return nil, report, svrErrors.Wrap(df.Err, "normalize dates")
		}
		out = &Frame{df: df}
	}

	var fill []string
	for _, name := range opts.FillColumns {
		if out.IsNumeric(name) && out.Missing(name) > 0 {
			fill = append(fill, name)
		}
	}
	if len(fill) > 0 {
		X := mat.NewDense(out.Len(), len(fill), nil)
		for j, name := range fill {
			col, err := out.Column(name)
			if err != nil {
				return nil, report, err
			}
			X.SetCol(j, col)
			report.Filled[name] = out.Missing(name)
		}

		imp := preprocessing.NewSimpleImputer()
		filled, err := imp.FitTransform(X)
		if err != nil {
			return nil, report, err
		}
		for j, name := range fill {
			df = df.Mutate(series.New(mat.Col(nil, j, filled), series.Float, name))
			report.FillValues[name] = imp.Statistics[j]
		}
		if df.Err != nil {
			return nil, report, svrErrors.Wrap(df.Err, "fill missing values")
		}
		out = &Frame{df: df}
	}

	log.GetLoggerWithName("dataset").Info("Data cleaned",
		log.PhaseKey, log.PhaseIngestion,
		"dropped", report.Dropped,
		"dates_normalized", report.DatesNormalized,
		"filled_columns", len(report.Filled),
	)
	return out, report, nil
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
