package models

// Category names double as durable table names. The order here is the
// reporting order used by the orchestrator's run summary.
const (
	CategoryPriceHistory     = "price_history"
	CategoryStats            = "stats"
	CategoryFeatures         = "features"
	CategoryRentalTerms      = "rental_terms"
	CategoryApartmentDetails = "apartment_details"
	CategoryBuildingDetails  = "building_details"
	CategoryEstimation       = "estimation"
)

// Categories lists every per-listing attribute category.
var Categories = []string{
	CategoryPriceHistory,
	CategoryStats,
	CategoryFeatures,
	CategoryRentalTerms,
	CategoryApartmentDetails,
	CategoryBuildingDetails,
	CategoryEstimation,
}

// CategoryHeaders fixes the column order of each category table.
var CategoryHeaders = map[string][]string{
	CategoryPriceHistory: {
		"offer_id", "date", "date_iso", "price", "price_clean",
		"change", "change_clean", "is_increase",
	},
	CategoryStats: {
		"offer_id", "creation_date", "creation_date_iso",
		"updated_date", "updated_date_iso",
		"total_views", "recent_views", "unique_views", "is_unpublished",
	},
	CategoryFeatures: {
		"offer_id", "has_refrigerator", "has_dishwasher", "has_washing_machine",
		"has_air_conditioner", "has_tv", "has_internet", "has_kitchen_furniture",
		"has_room_furniture", "has_bathtub", "has_shower_cabin",
	},
	CategoryRentalTerms: {
		"offer_id", "utilities_payment", "security_deposit", "commission",
		"prepayment", "rental_period", "living_conditions", "negotiable",
	},
	CategoryApartmentDetails: {
		"offer_id", "layout", "apartment_type", "total_area", "living_area",
		"kitchen_area", "ceiling_height", "bathroom", "balcony",
		"sleeping_places", "renovation", "view",
	},
	CategoryBuildingDetails: {
		"offer_id", "year_built", "building_series", "garbage_chute",
		"elevators", "building_type", "ceiling_type", "parking", "entrances",
		"heating", "emergency", "gas_supply",
	},
	CategoryEstimation: {
		"offer_id", "estimated_price", "estimated_price_clean",
	},
}
