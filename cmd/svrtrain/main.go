// Command svrtrain runs the dashboard pipeline on a CSV file without the web
// UI: it fits the model, prints the metrics and predicts one point.
//
//	svrtrain -csv prices.csv -features Open,High,Low,Volume -target Close -save model.gob
//	svrtrain -load model.gob -predict 150,152,148,1500
//	svrtrain -csv prices.csv -target Close -json svr.json
//	svrtrain -inspect svr.json
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/profile"

	"github.com/ezoic/svrdash/dataset"
	"github.com/ezoic/svrdash/internal/config"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
	"github.com/ezoic/svrdash/plots"
	"github.com/ezoic/svrdash/predictor"
	"github.com/ezoic/svrdash/svm"
)

type flags struct {
	config   string
	csv      string
	features string
	target   string
	clean    bool
	kernel   string
	c        float64
	epsilon  float64
	save     string
	json     string
	inspect  string
	load     string
	predict  string
	pngDir   string
	profile  string
	logLevel string
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "", "optional config file")
	flag.StringVar(&f.csv, "csv", "", "CSV file to train on")
	flag.StringVar(&f.features, "features", "", "comma separated feature columns (default: all numeric but the target)")
	flag.StringVar(&f.target, "target", "", "target column (default: last numeric column)")
	flag.BoolVar(&f.clean, "clean", false, "drop Adj Close, normalize dates and fill missing values first")
	flag.StringVar(&f.kernel, "kernel", "", "kernel: rbf, linear, poly or sigmoid")
	flag.Float64Var(&f.c, "c", 0, "regularization parameter C (0 keeps the configured value)")
	flag.Float64Var(&f.epsilon, "epsilon", -1, "epsilon tube width (negative keeps the configured value)")
	flag.StringVar(&f.save, "save", "", "write the fitted bundle to this file")
	flag.StringVar(&f.json, "json", "", "write the fitted SVR as JSON to this file")
	flag.StringVar(&f.inspect, "inspect", "", "print a summary of an SVR written with -json")
	flag.StringVar(&f.load, "load", "", "predict with a saved bundle instead of training")
	flag.StringVar(&f.predict, "predict", "", "comma separated feature values (default: feature means)")
	flag.StringVar(&f.pngDir, "png", "", "write line.png and bars.png to this directory")
	flag.StringVar(&f.profile, "profile", "", "write a CPU profile to this directory")
	flag.StringVar(&f.logLevel, "log-level", "warn", "log level")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	log.SetupLogger(f.logLevel)

	if err := run(f); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	if f.profile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(f.profile), profile.Quiet).Stop()
	}

	if f.inspect != "" {
		return inspectJSON(f.inspect)
	}
	if f.load != "" {
		return predictWithBundle(f)
	}
	if f.csv == "" {
		return svrErrors.NewValueError("svrtrain", "either -csv or -load is required")
	}

	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	opts, err := options(f, cfg)
	if err != nil {
		return err
	}

	frame, err := dataset.ReadCSVFile(f.csv)
	if err != nil {
		return err
	}
	if f.clean || cfg.Data.Clean {
		cleaned, report, err := frame.Clean(cfg.Data.CleanOptions)
		if err != nil {
			return err
		}
		frame = cleaned
		for name, n := range report.Filled {
			if n > 0 {
				fmt.Printf("Filled %d missing %s values with %.4f\n", n, name, report.FillValues[name])
			}
		}
	}

	opts.Selection = selection(f, frame)
	res, err := predictor.Run(frame, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Features: %s\nTarget: %s\n", strings.Join(res.Selection.Features, ", "), res.Selection.Target)
	fmt.Printf("Trained on %d rows, evaluated on %d rows\n", res.TrainSize, res.TestSize)
	for _, w := range res.Warnings {
		fmt.Println("Warning:", w)
	}
	fmt.Println("Model Performance:")
	for _, line := range res.Metrics.Lines() {
		fmt.Println(line)
	}
	if b := res.Baseline; b != nil {
		fmt.Printf("Linear baseline: R-squared %.4f, RMSE %.4f\n", b.R2, b.RMSE)
	}

	if f.pngDir != "" {
		if err := writePNGs(f.pngDir, res, cfg.Data.BarPairs); err != nil {
			return err
		}
	}
	if f.save != "" {
		if err := res.SaveFile(f.save); err != nil {
			return err
		}
		fmt.Println("Saved model to", f.save)
	}
	if f.json != "" {
		if err := writeJSON(f.json, res.Model); err != nil {
			return err
		}
		fmt.Println("Wrote", f.json)
	}

	values := res.FeatureMeans
	if f.predict != "" {
		if values, err = parseValues(f.predict); err != nil {
			return err
		}
	}
	return printPrediction(&res.Bundle, values)
}

// selection builds the selection from -features and -target. With only a
// target, every other numeric column is a feature.
func selection(f flags, frame *dataset.Frame) dataset.Selection {
	if f.target == "" && f.features == "" {
		return dataset.Selection{}
	}
	features := splitList(f.features)
	if len(features) == 0 {
		for _, name := range frame.NumericColumns() {
			if name != f.target {
				features = append(features, name)
			}
		}
	}
	return dataset.Selection{Features: features, Target: f.target}
}

func options(f flags, cfg *config.Config) (predictor.Options, error) {
	opts := predictor.Options{TrainRatio: cfg.Model.TrainRatio, Params: cfg.Model.Params}
	if f.kernel != "" {
		k, err := svm.ParseKernel(f.kernel)
		if err != nil {
			return opts, err
		}
		opts.Params.Kernel = k
	}
	if f.c > 0 {
		opts.Params.C = f.c
	}
	if f.epsilon >= 0 {
		opts.Params.Epsilon = f.epsilon
	}
	return opts, nil
}

func predictWithBundle(f flags) error {
	b, err := predictor.LoadBundleFile(f.load)
	if err != nil {
		return err
	}
	values := b.FeatureMeans
	if f.predict != "" {
		if values, err = parseValues(f.predict); err != nil {
			return err
		}
	}
	return printPrediction(b, values)
}

func printPrediction(b *predictor.Bundle, values []float64) error {
	v, err := b.PredictOne(values)
	if err != nil {
		return err
	}
	parts := make([]string, len(values))
	for i, name := range b.Selection.Features {
		parts[i] = name + "=" + strconv.FormatFloat(values[i], 'f', -1, 64)
	}
	fmt.Printf("Input: %s\n", strings.Join(parts, ", "))
	fmt.Printf("Predicted %s: %.2f\n", b.Selection.Target, v)
	return nil
}

func writePNGs(dir string, res *predictor.Result, pairs int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return svrErrors.Wrapf(err, "failed to create %s", dir)
	}
	draw := map[string]func(*os.File) error{
		"line.png": func(w *os.File) error { return plots.LinePNG(w, res.Actual, res.Predicted) },
		"bars.png": func(w *os.File) error { return plots.BarPNG(w, res.Actual, res.Predicted, pairs) },
	}
	for name, fn := range draw {
		path := filepath.Join(dir, name)
		out, err := os.Create(path)
		if err != nil {
			return svrErrors.Wrapf(err, "failed to create %s", path)
		}
		if err := fn(out); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return svrErrors.Wrapf(err, "failed to close %s", path)
		}
		fmt.Println("Wrote", path)
	}
	return nil
}

func writeJSON(path string, m *svm.SVR) error {
	out, err := os.Create(path)
	if err != nil {
		return svrErrors.Wrapf(err, "failed to create %s", path)
	}
	if err := m.ExportJSON(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return svrErrors.Wrapf(err, "failed to close %s", path)
	}
	return nil
}

func inspectJSON(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return svrErrors.Wrapf(err, "failed to open %s", path)
	}
	defer in.Close()

	m := &svm.SVR{}
	if err := m.ImportJSON(in); err != nil {
		return svrErrors.Wrapf(err, "failed to read %s", path)
	}
	p := m.Params
	fmt.Printf("Kernel: %s\nC: %g\nEpsilon: %g\nGamma: %g\n", p.Kernel, p.C, p.Epsilon, m.GammaValue)
	fmt.Printf("Features: %d\nSupport vectors: %d\nIntercept: %.4f\n", m.NFeatures, m.NSupport(), m.Intercept)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseValues(s string) ([]float64, error) {
	parts := splitList(s)
	values := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, svrErrors.NewValueError("svrtrain", fmt.Sprintf("%q is not a number", p))
		}
		values[i] = v
	}
	return values, nil
}
