package wallet

import "ecosmart/models"

// benefitCatalog is the fixed set of redeemable benefits. Partner deals
// change rarely enough that the catalog ships with the binary.
var benefitCatalog = []models.Benefit{
	{
		ID:            "med_1",
		Name:          "15% off on Health Check-up",
		CoinsRequired: 500,
		Description:   "Get 15% discount on basic health check-up at partner clinics (max discount ₹500)",
		ValidityDays:  30,
	},
	{
		ID:            "med_2",
		Name:          "20% off on Dental Treatment",
		CoinsRequired: 750,
		Description:   "20% discount on basic dental treatments at partner clinics (max discount ₹800)",
		ValidityDays:  45,
	},
	{
		ID:            "med_3",
		Name:          "15% off on Eye Treatment",
		CoinsRequired: 600,
		Description:   "15% discount on basic eye treatments at partner opticians (max discount ₹600)",
		ValidityDays:  45,
	},
	{
		ID:            "med_4",
		Name:          "20% off on Physiotherapy",
		CoinsRequired: 800,
		Description:   "20% discount on physiotherapy sessions at partner clinics (max discount ₹1000)",
		ValidityDays:  60,
	},
	{
		ID:            "med_5",
		Name:          "25% off on Health Camp",
		CoinsRequired: 1000,
		Description:   "25% discount on basic health camp packages (max discount ₹1200)",
		ValidityDays:  60,
	},
	{
		ID:            "med_6",
		Name:          "10% off on Medical Consultation",
		CoinsRequired: 400,
		Description:   "10% discount on medical consultations at partner clinics (max discount ₹300)",
		ValidityDays:  30,
	},
	{
		ID:            "med_7",
		Name:          "20% off on Diagnostic Tests",
		CoinsRequired: 900,
		Description:   "20% discount on basic diagnostic test packages at partner labs (max discount ₹1000)",
		ValidityDays:  60,
	},
	{
		ID:            "med_8",
		Name:          "15% off on Medical Equipment",
		CoinsRequired: 1200,
		Description:   "15% discount on basic medical equipment at partner stores (max discount ₹1500)",
		ValidityDays:  90,
	},
	{
		ID:            "med_9",
		Name:          "10% off on Medicines",
		CoinsRequired: 450,
		Description:   "10% discount on medicines at partner pharmacies (max discount ₹500)",
		ValidityDays:  30,
	},
	{
		ID:            "med_10",
		Name:          "15% off on Health Insurance",
		CoinsRequired: 1500,
		Description:   "15% discount on basic health insurance premiums from partner insurers (max discount ₹2000)",
		ValidityDays:  90,
	},
}

// Benefits returns the redeemable benefit catalog.
func Benefits() []models.Benefit {
	out := make([]models.Benefit, len(benefitCatalog))
	copy(out, benefitCatalog)
	return out
}

// BenefitByID looks a benefit up in the catalog.
func BenefitByID(id string) (models.Benefit, error) {
	for _, b := range benefitCatalog {
		if b.ID == id {
			return b, nil
		}
	}
	return models.Benefit{}, ErrUnknownBenefit
}
