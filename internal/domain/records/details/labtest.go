package details

import (
	"errors"
	"strings"
)

type LabResult struct {
	Name           string  `json:"name"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"reference_range,omitempty"`
}

type LabTest struct {
	TestName   string      `json:"test_name"`
	Laboratory string      `json:"laboratory,omitempty"`
	Results    []LabResult `json:"results,omitempty"`
}

func (l LabTest) Validate() error {
	if strings.TrimSpace(l.TestName) == "" {
		return errors.New("test_name required")
	}
	for _, r := range l.Results {
		if strings.TrimSpace(r.Name) == "" {
			return errors.New("lab result name required")
		}
	}
	return nil
}
