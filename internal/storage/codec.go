package storage

import (
	"encoding/json"
	"fmt"

	"solana-revival-scanner/internal/domain"
)

// resultDetails is the JSON column holding the per-signal detail maps.
type resultDetails struct {
	Price  map[string]any `json:"price,omitempty"`
	Smart  map[string]any `json:"smart,omitempty"`
	Holder map[string]any `json:"holder,omitempty"`
}

// EncodeDetails marshals the detail maps of r for a JSON column.
func EncodeDetails(r *domain.RevivalResult) ([]byte, error) {
	data, err := json.Marshal(resultDetails{Price: r.PriceDetails, Smart: r.SmartDetails, Holder: r.HolderDetails})
	if err != nil {
		return nil, fmt.Errorf("encode result details: %w", err)
	}
	return data, nil
}

// DecodeDetails restores the detail maps of r. Numbers decode as float64.
func DecodeDetails(data []byte, r *domain.RevivalResult) error {
	if len(data) == 0 {
		return nil
	}
	var d resultDetails
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("decode result details: %w", err)
	}
	r.PriceDetails, r.SmartDetails, r.HolderDetails = d.Price, d.Smart, d.Holder
	return nil
}

// EncodeScanColumns marshals the phase counts and errors of a scan.
func EncodeScanColumns(s *domain.ScanCycle) (phaseCounts, errs []byte, err error) {
	counts := s.PhaseCounts
	if counts == nil {
		counts = map[domain.Phase]int{}
	}
	if phaseCounts, err = json.Marshal(counts); err != nil {
		return nil, nil, fmt.Errorf("encode phase counts: %w", err)
	}
	list := s.Errors
	if list == nil {
		list = []string{}
	}
	if errs, err = json.Marshal(list); err != nil {
		return nil, nil, fmt.Errorf("encode scan errors: %w", err)
	}
	return phaseCounts, errs, nil
}

// DecodeScanColumns restores the phase counts and errors of a scan.
func DecodeScanColumns(phaseCounts, errs []byte, s *domain.ScanCycle) error {
	s.PhaseCounts = make(map[domain.Phase]int)
	if len(phaseCounts) > 0 {
		if err := json.Unmarshal(phaseCounts, &s.PhaseCounts); err != nil {
			return fmt.Errorf("decode phase counts: %w", err)
		}
	}
	if len(errs) > 0 {
		if err := json.Unmarshal(errs, &s.Errors); err != nil {
			return fmt.Errorf("decode scan errors: %w", err)
		}
	}
	if len(s.Errors) == 0 {
		s.Errors = nil
	}
	return nil
}
