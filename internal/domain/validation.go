package domain

import "strings"

func ValidateTerms(t LeaseTerms) error {
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return validationf("start date and end date are required")
	}
	if !t.EndDate.After(t.StartDate) {
		return validationf("end date must be after start date")
	}
	if t.RentAmount < 0 {
		return validationf("rent amount must be >= 0")
	}
	if t.SecurityDeposit < 0 {
		return validationf("security deposit must be >= 0")
	}
	if !t.RentFrequency.Valid() {
		return validationf("unsupported rent frequency %q", t.RentFrequency)
	}
	for i, c := range t.CustomClauses {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Body) == "" {
			return validationf("custom clause %d needs a title and a body", i+1)
		}
	}
	return nil
}
