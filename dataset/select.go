package dataset

import (
	"fmt"

	svrErrors "github.com/ezoic/svrdash/pkg/errors"
)

// Selection names the feature columns and the target column of a fit.
type Selection struct {
	Features []string `json:"features" form:"features"`
	Target   string   `json:"target" form:"target"`
}

// DefaultSelection picks the last column as target and every other column as
// a feature.
func DefaultSelection(columns []string) Selection {
	if len(columns) == 0 {
		return Selection{}
	}
	last := len(columns) - 1
	features := make([]string, last)
	copy(features, columns[:last])
	return Selection{Features: features, Target: columns[last]}
}

// DefaultSelection is the package-level default narrowed to numeric columns.
func (f *Frame) DefaultSelection() Selection {
	return DefaultSelection(f.NumericColumns())
}

// Validate checks the selection against f and returns the selection that will
// actually be used, plus any warnings.
//
// Every name must be a numeric column and at least one feature must remain.
// A target listed among the features is removed from them with a warning, as
// are duplicate features.
func (s Selection) Validate(f *Frame) (Selection, []string, error) {
	var warnings []string
	if s.Target == "" {
		return Selection{}, nil, svrErrors.NewValueError("Selection.Validate", "no target column selected")
	}
	if _, err := f.Column(s.Target); err != nil {
		return Selection{}, nil, err
	}

	seen := make(map[string]bool, len(s.Features))
	features := make([]string, 0, len(s.Features))
	for _, name := range s.Features {
		switch {
		case name == s.Target:
			warnings = append(warnings, fmt.Sprintf(
				"target %q was also selected as a feature; it has been removed from the features", name))
			continue
		case seen[name]:
			warnings = append(warnings, fmt.Sprintf("feature %q selected twice", name))
			continue
		}
		if _, err := f.Column(name); err != nil {
			return Selection{}, nil, err
		}
		seen[name] = true
		features = append(features, name)
	}
	if len(features) == 0 {
		return Selection{}, nil, svrErrors.NewValueError("Selection.Validate", "select at least one feature column")
	}
	return Selection{Features: features, Target: s.Target}, warnings, nil
}
