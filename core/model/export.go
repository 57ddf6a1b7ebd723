package model

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/ezoic/svrdash/pkg/errors"
)

// FormatVersion is the only envelope version written and accepted.
const FormatVersion = "1.0"

// ModelSpec is the metadata header of an exported model.
type ModelSpec struct {
	Name          string `json:"name"`
	FormatVersion string `json:"format_version"`
}

// ExportedModel is the JSON envelope: a spec plus model-specific params.
type ExportedModel struct {
	ModelSpec ModelSpec       `json:"model_spec"`
	Params    json.RawMessage `json:"params"`
}

// ExportModel writes params under an envelope named modelName.
func ExportModel(modelName string, params interface{}, w io.Writer) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(err, "failed to marshal params")
	}

	exported := ExportedModel{
		ModelSpec: ModelSpec{Name: modelName, FormatVersion: FormatVersion},
		Params:    paramsJSON,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&exported); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// ImportModel reads an envelope and decodes its params into params, checking
// that the envelope was written for modelName.
func ImportModel(modelName string, r io.Reader, params interface{}) error {
	var exported ExportedModel
	if err := json.NewDecoder(r).Decode(&exported); err != nil {
		return errors.Wrap(err, "failed to decode JSON")
	}

	if exported.ModelSpec.FormatVersion != FormatVersion {
		return errors.NewValueError("ImportModel",
			fmt.Sprintf("unsupported format version: %q", exported.ModelSpec.FormatVersion))
	}
	if exported.ModelSpec.Name != modelName {
		return errors.NewValueError("ImportModel",
			fmt.Sprintf("expected %s, got %q", modelName, exported.ModelSpec.Name))
	}

	if err := json.Unmarshal(exported.Params, params); err != nil {
		return errors.Wrap(err, "failed to unmarshal params")
	}
	return nil
}
