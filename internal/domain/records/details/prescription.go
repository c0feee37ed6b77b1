package details

import (
	"errors"
	"strings"
	"time"
)

type Prescription struct {
	Medication string `json:"medication"`

	Dosage   string `json:"dosage,omitempty"`    // "2"
	DoseUnit string `json:"dose_unit,omitempty"` // "ml", "mg", etc.

	Frequency string `json:"frequency,omitempty"` // texto libre: "cada 12h"

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

func (p Prescription) Validate() error {
	if strings.TrimSpace(p.Medication) == "" {
		return errors.New("medication required")
	}
	if p.StartDate.IsZero() {
		return errors.New("start_date required")
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return errors.New("end_date before start_date")
	}
	return nil
}
