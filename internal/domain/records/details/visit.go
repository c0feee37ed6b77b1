package details

import "errors"

// Visit es el detalle (opcional) de una consulta.
type Visit struct {
	Reason    string   `json:"reason,omitempty"`
	Diagnosis string   `json:"diagnosis,omitempty"`
	Treatment string   `json:"treatment,omitempty"`
	WeightKg  *float64 `json:"weight_kg,omitempty"`
}

func (v Visit) Validate() error {
	if v.WeightKg != nil && *v.WeightKg <= 0 {
		return errors.New("weight_kg must be positive")
	}
	return nil
}
