// Package predictor runs the dashboard's regression pipeline on a Frame:
// select columns, split by row order, standardize with statistics from the
// training rows, fit an SVR, and evaluate it on the held-out rows.
//
// Example usage:
//
//	opts := predictor.DefaultOptions()
//	opts.Selection = dataset.Selection{Features: []string{"Open", "High", "Low", "Volume"}, Target: "Close"}
//	res, err := predictor.Run(frame, opts)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, line := range res.Metrics.Lines() {
//		fmt.Println(line)
//	}
//	price, err := res.PredictOne(res.FeatureMeans)
package predictor

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/dataset"
	"github.com/ezoic/svrdash/linear"
	"github.com/ezoic/svrdash/metrics"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
	"github.com/ezoic/svrdash/preprocessing"
	"github.com/ezoic/svrdash/svm"
)

func logger() log.Logger {
	return log.GetLoggerWithName("predictor")
}

// Options configures Run.
type Options struct {
	Selection  dataset.Selection
	TrainRatio float64
	Params     svm.Params
}

// DefaultOptions returns an 80/20 split and the default SVR. Selection is left
// empty, meaning the frame's default selection.
func DefaultOptions() Options {
	return Options{
		TrainRatio: dataset.DefaultTrainRatio,
		Params:     svm.DefaultParams(),
	}
}

// Result is the outcome of one Run.
type Result struct {
	Bundle

	TrainSize int
	TestSize  int
	// Actual and Predicted are the held-out target values and the model's
	// predictions for them, in row order.
	Actual    []float64
	Predicted []float64

	// Baseline holds the held-out metrics of a least squares fit on the same
	// scaled features, nil when that fit failed.
	Baseline *metrics.Report

	Warnings []string
	Duration time.Duration
}

// BaselineAlpha is the L2 strength of the least squares baseline. It keeps
// the fit defined for collinear price columns.
const BaselineAlpha = 1e-3

// Run fits the pipeline on frame and evaluates it on the held-out rows.
//
// The feature matrix holds exactly the selected features in selection order,
// and the scaler only sees the training rows. Every call starts from scratch.
func Run(frame *dataset.Frame, opts Options) (*Result, error) {
	start := time.Now()

	sel := opts.Selection
	if sel.Target == "" && len(sel.Features) == 0 {
		sel = frame.DefaultSelection()
	}
	sel, warnings, err := sel.Validate(frame)
	if err != nil {
		return nil, err
	}
	if opts.TrainRatio == 0 {
		opts.TrainRatio = dataset.DefaultTrainRatio
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}

	lg := logger().With(log.TargetKey, sel.Target)
	lg.Info("Pipeline started",
		log.SamplesKey, frame.Len(),
		log.FeaturesKey, len(sel.Features),
		"kernel", string(opts.Params.Kernel),
	)

	X, err := frame.Matrix(sel.Features)
	if err != nil {
		return nil, err
	}
	y, err := frame.Vector(sel.Target)
	if err != nil {
		return nil, err
	}
	means, err := frame.Means(sel.Features)
	if err != nil {
		return nil, err
	}

	XTrain, XTest, yTrain, yTest, err := dataset.TrainTestSplit(X, y, opts.TrainRatio)
	if err != nil {
		return nil, err
	}

	scaler := preprocessing.NewStandardScalerDefault()
	XTrainScaled, err := scaler.FitTransform(XTrain)
	if err != nil {
		return nil, svrErrors.Wrap(err, "failed to fit step 'scaler'")
	}
	XTestScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, svrErrors.Wrap(err, "failed to transform at step 'scaler'")
	}

	svr := svm.NewSVR(opts.Params)
	if err := svr.Fit(XTrainScaled, yTrain); err != nil {
		return nil, svrErrors.Wrap(err, "failed to fit final step 'svr'")
	}
	yPred, err := svr.PredictVec(XTestScaled)
	if err != nil {
		return nil, svrErrors.Wrap(err, "failed to predict held-out rows")
	}

	report, evalWarnings, err := evaluate(yTest, yPred)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, evalWarnings...)

	baseline, err := fitBaseline(XTrainScaled, yTrain, XTestScaled, yTest)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("linear baseline unavailable: %v", err))
	}
	for _, w := range warnings {
		lg.Warn(w)
	}

	res := &Result{
		Bundle: Bundle{
			Selection:    sel,
			Scaler:       scaler,
			Model:        svr,
			FeatureMeans: means,
			Metrics:      report,
		},
		TrainSize: yTrain.Len(),
		TestSize:  yTest.Len(),
		Actual:    mat.Col(nil, 0, yTest),
		Predicted: mat.Col(nil, 0, yPred),
		Baseline:  baseline,
		Warnings:  warnings,
		Duration:  time.Since(start),
	}

	lg.Info("Pipeline completed",
		log.PhaseKey, log.PhaseEvaluation,
		"train", res.TrainSize,
		"test", res.TestSize,
		"r2", report.R2,
		"rmse", report.RMSE,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res, nil
}

// evaluate computes the metrics report. R² is undefined when the held-out
// target is constant; it is then reported as 1 for exact predictions and
// otherwise as 0 with a warning.
func evaluate(yTrue, yPred *mat.VecDense) (metrics.Report, []string, error) {
	report, err := metrics.Evaluate(yTrue, yPred)
	if err == nil {
		return report, nil, nil
	}
	if !svrErrors.Is(err, svrErrors.ErrInvalidInput) {
		return metrics.Report{}, nil, err
	}

	var mErr error
	if report.MAE, mErr = metrics.MAE(yTrue, yPred); mErr != nil {
		return metrics.Report{}, nil, mErr
	}
	if report.MSE, mErr = metrics.MSE(yTrue, yPred); mErr != nil {
		return metrics.Report{}, nil, mErr
	}
	rmse, _ := metrics.RMSE(yTrue, yPred)
	report.RMSE = rmse
	// Exact predictions of a constant series score 1.
	if report.MSE == 0 {
		report.R2 = 1
		return report, nil, nil
	}
	report.R2 = 0
	return report, []string{fmt.Sprintf(
		"the %d held-out target values are constant, so R-squared is undefined and shown as 0", yTrue.Len())}, nil
}

// fitBaseline fits a lightly regularized least squares model on the same
// split and returns its held-out metrics.
func fitBaseline(XTrain mat.Matrix, yTrain *mat.VecDense, XTest mat.Matrix, yTest *mat.VecDense) (*metrics.Report, error) {
	lr := linear.NewLinearRegression()
	lr.Alpha = BaselineAlpha
	if err := lr.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}
	pred, err := lr.PredictVec(XTest)
	if err != nil {
		return nil, err
	}
	report, _, err := evaluate(yTest, pred)
	if err != nil {
		return nil, err
	}
	return &report, nil
}
