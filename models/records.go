package models

import "strconv"

// PriceHistoryEntry is one row of a listing's price history table. A listing
// may have many entries; append order is the record of observation order.
type PriceHistoryEntry struct {
	OfferID     string
	Date        string
	DateISO     string
	Price       string
	PriceClean  string
	Change      string
	ChangeClean string
	IsIncrease  bool
}

func (e *PriceHistoryEntry) Record() map[string]string {
	return map[string]string{
		"offer_id":     e.OfferID,
		"date":         e.Date,
		"date_iso":     e.DateISO,
		"price":        e.Price,
		"price_clean":  e.PriceClean,
		"change":       e.Change,
		"change_clean": e.ChangeClean,
		"is_increase":  strconv.FormatBool(e.IsIncrease),
	}
}

// Stats holds view statistics and publication state for one listing.
type Stats struct {
	OfferID         string
	CreationDate    string
	CreationDateISO string
	UpdatedDate     string
	UpdatedDateISO  string
	TotalViews      string
	RecentViews     string
	UniqueViews     string
	IsUnpublished   bool
}

func (s *Stats) Record() map[string]string {
	return map[string]string{
		"offer_id":          s.OfferID,
		"creation_date":     s.CreationDate,
		"creation_date_iso": s.CreationDateISO,
		"updated_date":      s.UpdatedDate,
		"updated_date_iso":  s.UpdatedDateISO,
		"total_views":       s.TotalViews,
		"recent_views":      s.RecentViews,
		"unique_views":      s.UniqueViews,
		"is_unpublished":    strconv.FormatBool(s.IsUnpublished),
	}
}

// Features holds the ten fixed amenity flags.
type Features struct {
	OfferID             string
	HasRefrigerator     bool
	HasDishwasher       bool
	HasWashingMachine   bool
	HasAirConditioner   bool
	HasTV               bool
	HasInternet         bool
	HasKitchenFurniture bool
	HasRoomFurniture    bool
	HasBathtub          bool
	HasShowerCabin      bool
}

func (f *Features) Record() map[string]string {
	return map[string]string{
		"offer_id":              f.OfferID,
		"has_refrigerator":      strconv.FormatBool(f.HasRefrigerator),
		"has_dishwasher":        strconv.FormatBool(f.HasDishwasher),
		"has_washing_machine":   strconv.FormatBool(f.HasWashingMachine),
		"has_air_conditioner":   strconv.FormatBool(f.HasAirConditioner),
		"has_tv":                strconv.FormatBool(f.HasTV),
		"has_internet":          strconv.FormatBool(f.HasInternet),
		"has_kitchen_furniture": strconv.FormatBool(f.HasKitchenFurniture),
		"has_room_furniture":    strconv.FormatBool(f.HasRoomFurniture),
		"has_bathtub":           strconv.FormatBool(f.HasBathtub),
		"has_shower_cabin":      strconv.FormatBool(f.HasShowerCabin),
	}
}

// Any reports whether at least one amenity flag is set.
func (f *Features) Any() bool {
	return f.HasRefrigerator || f.HasDishwasher || f.HasWashingMachine ||
		f.HasAirConditioner || f.HasTV || f.HasInternet ||
		f.HasKitchenFurniture || f.HasRoomFurniture || f.HasBathtub ||
		f.HasShowerCabin
}

// RentalTerms holds the lease conditions of one listing. SecurityDeposit is
// kept digit-only; the remaining fields stay as site text.
type RentalTerms struct {
	OfferID          string
	UtilitiesPayment string
	SecurityDeposit  string
	Commission       string
	Prepayment       string
	RentalPeriod     string
	LivingConditions string
	Negotiable       string
}

func (r *RentalTerms) Record() map[string]string {
	return map[string]string{
		"offer_id":          r.OfferID,
		"utilities_payment": r.UtilitiesPayment,
		"security_deposit":  r.SecurityDeposit,
		"commission":        r.Commission,
		"prepayment":        r.Prepayment,
		"rental_period":     r.RentalPeriod,
		"living_conditions": r.LivingConditions,
		"negotiable":        r.Negotiable,
	}
}

// Any reports whether any term besides the id was extracted.
func (r *RentalTerms) Any() bool {
	return r.UtilitiesPayment != "" || r.SecurityDeposit != "" ||
		r.Commission != "" || r.Prepayment != "" || r.RentalPeriod != "" ||
		r.LivingConditions != "" || r.Negotiable != ""
}

// ApartmentDetails holds the per-apartment summary attributes.
type ApartmentDetails struct {
	OfferID        string
	Layout         string
	ApartmentType  string
	TotalArea      string
	LivingArea     string
	KitchenArea    string
	CeilingHeight  string
	Bathroom       string
	Balcony        string
	SleepingPlaces string
	Renovation     string
	View           string
}

func (a *ApartmentDetails) Record() map[string]string {
	return map[string]string{
		"offer_id":        a.OfferID,
		"layout":          a.Layout,
		"apartment_type":  a.ApartmentType,
		"total_area":      a.TotalArea,
		"living_area":     a.LivingArea,
		"kitchen_area":    a.KitchenArea,
		"ceiling_height":  a.CeilingHeight,
		"bathroom":        a.Bathroom,
		"balcony":         a.Balcony,
		"sleeping_places": a.SleepingPlaces,
		"renovation":      a.Renovation,
		"view":            a.View,
	}
}

func (a *ApartmentDetails) Any() bool {
	return a.Layout != "" || a.ApartmentType != "" || a.TotalArea != "" ||
		a.LivingArea != "" || a.KitchenArea != "" || a.CeilingHeight != "" ||
		a.Bathroom != "" || a.Balcony != "" || a.SleepingPlaces != "" ||
		a.Renovation != "" || a.View != ""
}

// BuildingDetails holds the per-building summary attributes.
type BuildingDetails struct {
	OfferID         string
	YearBuilt       string
	BuildingSeries  string
	GarbageChute    string
	Elevators       string
	BuildingType    string
	CeilingType     string
	Parking         string
	Entrances       string
	Heating         string
	Emergency       string
	GasSupply       string
}

func (b *BuildingDetails) Record() map[string]string {
	return map[string]string{
		"offer_id":        b.OfferID,
		"year_built":      b.YearBuilt,
		"building_series": b.BuildingSeries,
		"garbage_chute":   b.GarbageChute,
		"elevators":       b.Elevators,
		"building_type":   b.BuildingType,
		"ceiling_type":    b.CeilingType,
		"parking":         b.Parking,
		"entrances":       b.Entrances,
		"heating":         b.Heating,
		"emergency":       b.Emergency,
		"gas_supply":      b.GasSupply,
	}
}

func (b *BuildingDetails) Any() bool {
	return b.YearBuilt != "" || b.BuildingSeries != "" || b.GarbageChute != "" ||
		b.Elevators != "" || b.BuildingType != "" || b.CeilingType != "" ||
		b.Parking != "" || b.Entrances != "" || b.Heating != "" ||
		b.Emergency != "" || b.GasSupply != ""
}

// Estimation holds the third-party price estimate for one listing.
type Estimation struct {
	OfferID             string
	EstimatedPrice      string
	EstimatedPriceClean string
}

func (e *Estimation) Record() map[string]string {
	return map[string]string{
		"offer_id":              e.OfferID,
		"estimated_price":       e.EstimatedPrice,
		"estimated_price_clean": e.EstimatedPriceClean,
	}
}
