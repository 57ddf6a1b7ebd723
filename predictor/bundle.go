package predictor

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/svrdash/core/model"
	"github.com/ezoic/svrdash/dataset"
	"github.com/ezoic/svrdash/metrics"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
	"github.com/ezoic/svrdash/preprocessing"
	"github.com/ezoic/svrdash/svm"
)

// Bundle is everything needed to predict again later: the fitted scaler and
// model, the feature order they expect and the feature means used to pre-fill
// inputs. Fields are exported for gob encoding.
type Bundle struct {
	Selection    dataset.Selection
	Scaler       *preprocessing.StandardScaler
	Model        *svm.SVR
	FeatureMeans []float64
	Metrics      metrics.Report
}

// PredictOne predicts the target for one row of feature values given in
// Selection.Features order. The fitted scaler is applied first; it is never
// re-fitted.
func (b *Bundle) PredictOne(values []float64) (float64, error) {
	if b.Scaler == nil || b.Model == nil {
		return 0, svrErrors.NewNotFittedError("predictor", "PredictOne")
	}
	if len(values) != len(b.Selection.Features) {
		return 0, svrErrors.NewDimensionError("predictor.PredictOne", len(b.Selection.Features), len(values), 1)
	}

	row := mat.NewDense(1, len(values), append([]float64(nil), values...))
	scaled, err := b.Scaler.Transform(row)
	if err != nil {
		return 0, err
	}
	pred, err := b.Model.PredictVec(scaled)
	if err != nil {
		return 0, err
	}
	return pred.AtVec(0), nil
}

// PredictNamed is PredictOne with values keyed by feature name. Every feature
// must be present and no other names are accepted.
func (b *Bundle) PredictNamed(values map[string]float64) (float64, error) {
	row := make([]float64, len(b.Selection.Features))
	for i, name := range b.Selection.Features {
		v, ok := values[name]
		if !ok {
			return 0, svrErrors.NewValueError("predictor.PredictNamed", fmt.Sprintf("missing value for feature %q", name))
		}
		row[i] = v
	}
	if len(values) != len(row) {
		var unknown []string
		for name := range values {
			if !b.hasFeature(name) {
				unknown = append(unknown, name)
			}
		}
		sort.Strings(unknown)
		return 0, svrErrors.NewValueError("predictor.PredictNamed", fmt.Sprintf("unknown features %q", unknown))
	}
	return b.PredictOne(row)
}

func (b *Bundle) hasFeature(name string) bool {
	for _, f := range b.Selection.Features {
		if f == name {
			return true
		}
	}
	return false
}

// Save writes the bundle with gob.
func (b *Bundle) Save(w io.Writer) error {
	return model.SaveModelToWriter(b, w)
}

// SaveFile writes the bundle to filename.
func (b *Bundle) SaveFile(filename string) error {
	return model.SaveModel(b, filename)
}

// LoadBundle reads a bundle written by Save.
func LoadBundle(r io.Reader) (*Bundle, error) {
	b := &Bundle{}
	if err := model.LoadModelFromReader(b, r); err != nil {
		return nil, err
	}
	return b.checkLoaded()
}

// LoadBundleFile reads a bundle written by SaveFile.
func LoadBundleFile(filename string) (*Bundle, error) {
	b := &Bundle{}
	if err := model.LoadModel(b, filename); err != nil {
		return nil, err
	}
	return b.checkLoaded()
}

func (b *Bundle) checkLoaded() (*Bundle, error) {
	if b.Scaler == nil || b.Model == nil || !b.Scaler.IsFitted() || !b.Model.IsFitted() {
		return nil, svrErrors.NewValueError("predictor.LoadBundle", "bundle does not hold a fitted scaler and model")
	}
	if n := len(b.Selection.Features); b.Scaler.NFeatures != n || b.Model.NFeatures != n {
		return nil, svrErrors.NewDimensionError("predictor.LoadBundle", n, b.Model.NFeatures, 1)
	}
	logger().Info("Bundle loaded",
		log.OperationKey, log.OperationLoad,
		log.TargetKey, b.Selection.Target,
		log.FeaturesKey, len(b.Selection.Features),
	)
	return b, nil
}
