package details

import (
	"errors"
	"strings"
)

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

type Allergy struct {
	Allergen string   `json:"allergen"`
	Severity Severity `json:"severity"`
	Reaction string   `json:"reaction,omitempty"`
}

func (a Allergy) Validate() error {
	if strings.TrimSpace(a.Allergen) == "" {
		return errors.New("allergen required")
	}
	switch a.Severity {
	case "", SeverityMild, SeverityModerate, SeveritySevere:
		return nil
	default:
		return errors.New("severity must be mild, moderate or severe")
	}
}
