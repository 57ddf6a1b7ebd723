package svm

import (
	"io"

	"github.com/ezoic/svrdash/core/model"
	svrErrors "github.com/ezoic/svrdash/pkg/errors"
	"github.com/ezoic/svrdash/pkg/log"
)

// exportedSVR is the JSON layout of a fitted SVR.
type exportedSVR struct {
	Params         Params      `json:"params"`
	Gamma          float64     `json:"gamma_value"`
	NFeatures      int         `json:"n_features"`
	SupportVectors [][]float64 `json:"support_vectors"`
	DualCoef       []float64   `json:"dual_coef"`
	Intercept      float64     `json:"intercept"`
}

// ExportJSON writes the fitted model (support vectors, dual coefficients,
// intercept and parameters) as JSON.
func (s *SVR) ExportJSON(w io.Writer) error {
	if !s.IsFitted() {
		return svrErrors.NewNotFittedError("SVR", "ExportJSON")
	}
	return model.ExportModel("SVR", exportedSVR{
		Params:         s.Params,
		Gamma:          s.GammaValue,
		NFeatures:      s.NFeatures,
		SupportVectors: s.SupportVectors,
		DualCoef:       s.DualCoef,
		Intercept:      s.Intercept,
	}, w)
}

// ImportJSON loads a model written by ExportJSON. The receiver is fitted on
// success.
func (s *SVR) ImportJSON(r io.Reader) error {
	var p exportedSVR
	if err := model.ImportModel("SVR", r, &p); err != nil {
		return err
	}
	if len(p.SupportVectors) != len(p.DualCoef) {
		return svrErrors.NewDimensionError("SVR.ImportJSON", len(p.DualCoef), len(p.SupportVectors), 0)
	}
	for _, sv := range p.SupportVectors {
		if len(sv) != p.NFeatures {
			return svrErrors.NewDimensionError("SVR.ImportJSON", p.NFeatures, len(sv), 1)
		}
	}
	if err := p.Params.Validate(); err != nil {
		return err
	}

	s.Params = p.Params
	s.GammaValue = p.Gamma
	s.NFeatures = p.NFeatures
	s.SupportVectors = p.SupportVectors
	s.DualCoef = p.DualCoef
	s.Intercept = p.Intercept
	s.state().SetDimensions(p.NFeatures, 0)
	s.state().SetFitted()
	s.getLogger().Info("Model imported",
		log.OperationKey, log.OperationLoad,
		"support_vectors", len(p.DualCoef),
	)
	return nil
}
