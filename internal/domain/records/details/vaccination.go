package details

import (
	"errors"
	"strings"
	"time"
)

// Vaccination modela una dosis aplicada; NextDue es el refuerzo sugerido.
type Vaccination struct {
	Vaccine string     `json:"vaccine"`
	Batch   string     `json:"batch,omitempty"`
	Dose    string     `json:"dose,omitempty"`
	NextDue *time.Time `json:"next_due,omitempty"`
}

func (v Vaccination) Validate() error {
	if strings.TrimSpace(v.Vaccine) == "" {
		return errors.New("vaccine required")
	}
	return nil
}
