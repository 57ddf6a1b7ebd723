package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/ezoic/svrdash/pkg/errors"
)

// SaveModel writes m to filename with encoding/gob.
//
// m is usually a pointer to a fitted estimator or to a predictor.Bundle.
// Only exported fields are persisted; loggers and caches are rebuilt on load.
//
// Example:
//
//	if err := model.SaveModel(svr, "svr.gob"); err != nil {
//		log.Fatal(err)
//	}
func SaveModel(m interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer func() { _ = file.Close() }()

	return SaveModelToWriter(m, file)
}

// SaveModelToWriter gob-encodes m into w.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if m == nil {
		return errors.NewValueError("SaveModel", "model cannot be nil")
	}
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModel decodes filename into m, which must be a pointer.
func LoadModel(m interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "failed to open file")
	}
	defer func() { _ = file.Close() }()

	return LoadModelFromReader(m, file)
}

// LoadModelFromReader gob-decodes r into m, which must be a pointer.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if m == nil {
		return errors.NewValueError("LoadModel", "model cannot be nil")
	}
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
