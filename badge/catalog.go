package badge

import "ecosmart/models"

// defaultCatalog seeds the tier definitions on an empty database.
var defaultCatalog = []models.Badge{
	{
		Name:            "Waste Warrior Bronze",
		Description:     "Submitted 10 waste reports",
		Level:           models.LevelBronze,
		RequiredReports: 10,
		ImageURL:        "/assets/badges/bronze.png",
		Rewards: []string{
			"0.25% interest rate reduction on green loans",
			"50 EcoPoints redeemable at partner businesses",
			"Certificate of Environmental Contribution",
		},
	},
	{
		Name:            "Waste Warrior Silver",
		Description:     "Submitted 25 waste reports",
		Level:           models.LevelSilver,
		RequiredReports: 25,
		ImageURL:        "/assets/badges/silver.png",
		Rewards: []string{
			"0.5% interest rate reduction on green loans",
			"150 EcoPoints redeemable at partner businesses",
			"Priority processing for municipal services",
		},
	},
	{
		Name:            "Waste Warrior Gold",
		Description:     "Submitted 50 waste reports",
		Level:           models.LevelGold,
		RequiredReports: 50,
		ImageURL:        "/assets/badges/gold.png",
		Rewards: []string{
			"1% interest rate reduction on green loans",
			"300 EcoPoints redeemable at partner businesses",
			"Annual free waste collection service",
			"Official recognition in city environmental program",
		},
	},
	{
		Name:            "Waste Warrior Platinum",
		Description:     "Submitted 100 waste reports",
		Level:           models.LevelPlatinum,
		RequiredReports: 100,
		ImageURL:        "/assets/badges/platinum.png",
		Rewards: []string{
			"Premium eco-friendly gift set",
			"Priority reporting and handling",
		},
	},
	{
		Name:            "Waste Warrior Diamond",
		Description:     "Submitted 250 waste reports",
		Level:           models.LevelDiamond,
		RequiredReports: 250,
		ImageURL:        "/assets/badges/diamond.png",
		Rewards: []string{
			"Exclusive sustainable living kit",
			"Feature in the EcoSmart community newsletter",
			"Invitation to annual environmental leadership conference",
		},
	},
}
