package cian

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"cian-scraper/models"
	"cian-scraper/services"
	"cian-scraper/utils"
)

const (
	priceHistorySelector   = "div[class*='history-wrapper'] table"
	statsButtonSelector    = "button[data-name='OfferStats']"
	statsPopupSelector     = "div[class*='information']"
	featuresLayoutSelector = "div[data-name='FeaturesLayout']"
	featuresItemSelector   = "div[data-name='FeaturesItem']"
	factsSidebarSelector   = "div[data-name='OfferFactsInSidebar']"
	factItemSelector       = "div[data-name='OfferFactItem']"
	summaryGroupSelector   = "div[data-name='OfferSummaryInfoGroup']"
	summaryItemSelector    = "div[data-name='OfferSummaryInfoItem']"
	unpublishedSelector    = "div[data-name='OfferUnpublished']"
	updatedDateSelector    = "div[data-testid='metadata-updated-date']"
)

// estimationSelectors are tried in order at every scroll stop. The site
// rotates its hashed class names, so the list mixes stable test ids with the
// class fragments seen in the wild.
var estimationSelectors = []string{
	"[data-testid='valuation_estimationPrice'] [class*='price'] span",
	"[data-testid='valuation_estimationPrice'] span",
	"[class*='price--w7ha0'] span",
	"[class*='price--w7ha0']",
	"[data-testid='valuation_estimationPrice']",
	"[class*='valuation-price']",
	"[class*='valuation-price-container']",
}

// estimationScrollStops are fractions of the page height; the valuation
// widget lazy-loads somewhere past the fold.
var estimationScrollStops = []float64{0.2, 0.4, 0.6, 0.8, 1.0}

var (
	updatedDateRegexp  = regexp.MustCompile(`Обновлено:\s+(.+)$`)
	dottedRegexp       = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
	viewsRegexp        = regexp.MustCompile(`(\d+)\s+просмотр`)
	uniqueViewsRegexp  = regexp.MustCompile(`(\d+)\s+уникальн`)
	containsDigitRegex = regexp.MustCompile(`\d`)
)

var featureLabels = map[string]func(*models.Features){
	"Холодильник":          func(f *models.Features) { f.HasRefrigerator = true },
	"Посудомоечная машина": func(f *models.Features) { f.HasDishwasher = true },
	"Стиральная машина":    func(f *models.Features) { f.HasWashingMachine = true },
	"Кондиционер":          func(f *models.Features) { f.HasAirConditioner = true },
	"Телевизор":            func(f *models.Features) { f.HasTV = true },
	"Интернет":             func(f *models.Features) { f.HasInternet = true },
	"Мебель на кухне":      func(f *models.Features) { f.HasKitchenFurniture = true },
	"Мебель в комнатах":    func(f *models.Features) { f.HasRoomFurniture = true },
	"Ванна":                func(f *models.Features) { f.HasBathtub = true },
	"Душевая кабина":       func(f *models.Features) { f.HasShowerCabin = true },
}

// termLabels includes the singular and plural spellings the site alternates
// between.
var termLabels = map[string]string{
	"Оплата ЖКХ":         "utilities_payment",
	"Залог":              "security_deposit",
	"Комиссии":           "commission",
	"Комиссия":           "commission",
	"Предоплата":         "prepayment",
	"Предоплаты":         "prepayment",
	"Срок аренды":        "rental_period",
	"Условия проживания": "living_conditions",
	"Торг":               "negotiable",
}

var apartmentLabels = map[string]string{
	"Тип жилья":       "apartment_type",
	"Планировка":      "layout",
	"Общая площадь":   "total_area",
	"Жилая площадь":   "living_area",
	"Площадь кухни":   "kitchen_area",
	"Высота потолков": "ceiling_height",
	"Санузел":         "bathroom",
	"Балкон/лоджия":   "balcony",
	"Спальных мест":   "sleeping_places",
	"Ремонт":          "renovation",
	"Вид из окон":     "view",
}

var buildingLabels = map[string]string{
	"Год постройки":      "year_built",
	"Строительная серия": "building_series",
	"Мусоропровод":       "garbage_chute",
	"Количество лифтов":  "elevators",
	"Тип дома":           "building_type",
	"Тип перекрытий":     "ceiling_type",
	"Парковка":           "parking",
	"Подъезды":           "entrances",
	"Отопление":          "heating",
	"Аварийность":        "emergency",
	"Газоснабжение":      "gas_supply",
}

// Extractor pulls the per-category attributes out of an offer page. Each
// method reports absence of its section with found=false; extraction itself
// never fails. Unknown labels are collected so drifting site markup shows up
// in the logs instead of silently producing empty tables.
type Extractor struct {
	logger     *utils.Logger
	normalizer *services.Normalizer

	// set to enable per-attempt diagnostics during estimation retries
	ScreenshotDir string
	// overridable in tests to avoid real sleeps
	RetryDelay time.Duration

	unknown map[string]int
}

func NewExtractor(logger *utils.Logger, normalizer *services.Normalizer) *Extractor {
	return &Extractor{
		logger:     logger,
		normalizer: normalizer,
		RetryDelay: 3 * time.Second,
		unknown:    make(map[string]int),
	}
}

// PriceHistory extracts every row of the price history table. Rows missing a
// date or price are skipped; the third cell's class tells increase from
// decrease.
func (e *Extractor) PriceHistory(p Page, offerID string) ([]*models.PriceHistoryEntry, bool) {
	tables := p.Find(priceHistorySelector)
	if len(tables) == 0 {
		return nil, false
	}

	entries := make([]*models.PriceHistoryEntry, 0)
	for i, row := range tables[0].Find("tr") {
		cells := row.Find("td")
		if len(cells) < 2 {
			continue
		}

		date := cells[0].Text()
		price := cells[1].Text()
		if date == "" || price == "" {
			e.logger.Debug("[cian] %s: price history row %d missing date or price", offerID, i+1)
			continue
		}

		change := ""
		isIncrease := false
		if len(cells) >= 3 {
			change = cells[2].Text()
			isIncrease = strings.Contains(cells[2].Attr("class"), "event-diff-increase")
		}

		dateISO, ok := e.normalizer.NormalizeDate(date)
		if !ok {
			e.logger.Warn("[cian] %s: unrecognized price history date %q", offerID, date)
		}

		entries = append(entries, &models.PriceHistoryEntry{
			OfferID:     offerID,
			Date:        date,
			DateISO:     dateISO,
			Price:       price,
			PriceClean:  e.normalizer.CleanNumeric(price),
			Change:      change,
			ChangeClean: e.normalizer.CleanSignedChange(change, isIncrease),
			IsIncrease:  isIncrease,
		})
	}
	return entries, len(entries) > 0
}

// Stats opens the view-statistics popup and parses its lines. The updated
// date and the unpublished banner live on the page itself and are collected
// regardless of whether the popup yields anything.
func (e *Extractor) Stats(p Page, offerID string) (*models.Stats, bool) {
	st := &models.Stats{OfferID: offerID}
	st.IsUnpublished = e.Unpublished(p)
	st.UpdatedDate, st.UpdatedDateISO = e.UpdatedDate(p)

	if err := p.Click(statsButtonSelector); err != nil {
		e.logger.Debug("[cian] %s: stats button: %v", offerID, err)
		return st, false
	}

	popups := p.Find(statsPopupSelector)
	if len(popups) == 0 {
		e.logger.Debug("[cian] %s: stats popup did not appear", offerID)
		return st, false
	}

	extracted := false
	for _, line := range popups[0].Find("div") {
		text := line.Text()

		if strings.Contains(text, "с даты создания объявления") {
			if m := dottedRegexp.FindStringSubmatch(text); m != nil {
				st.CreationDate = m[1]
				iso, ok := e.normalizer.NormalizeDate(st.CreationDate)
				if !ok {
					e.logger.Warn("[cian] %s: unrecognized creation date %q", offerID, st.CreationDate)
				}
				st.CreationDateISO = iso
				extracted = true
			}
			if m := viewsRegexp.FindStringSubmatch(text); m != nil {
				st.TotalViews = m[1]
			}
		}
		if strings.Contains(text, "за последние") {
			if m := viewsRegexp.FindStringSubmatch(text); m != nil {
				st.RecentViews = m[1]
				extracted = true
			}
		}
		if strings.Contains(text, "уникальн") {
			if m := uniqueViewsRegexp.FindStringSubmatch(text); m != nil {
				st.UniqueViews = m[1]
				extracted = true
			}
		}
	}
	return st, extracted
}

// Features reads the fixed amenity checklist.
func (e *Extractor) Features(p Page, offerID string) (*models.Features, bool) {
	f := &models.Features{OfferID: offerID}
	if len(p.Find(featuresLayoutSelector)) == 0 {
		return f, false
	}

	for _, item := range p.Find(featuresItemSelector) {
		text := item.Text()
		if set, ok := featureLabels[text]; ok {
			set(f)
		} else if text != "" {
			e.noteUnknown("features", text)
		}
	}
	return f, f.Any()
}

// RentalTerms reads the lease-conditions sidebar. The deposit is reduced to
// digits; everything else keeps the site's wording.
func (e *Extractor) RentalTerms(p Page, offerID string) (*models.RentalTerms, bool) {
	terms := &models.RentalTerms{OfferID: offerID}
	if len(p.Find(factsSidebarSelector)) == 0 {
		return terms, false
	}

	for _, item := range p.Find(factItemSelector) {
		spans := item.Find("span")
		if len(spans) < 2 {
			continue
		}
		name := spans[0].Text()
		value := spans[len(spans)-1].Text()

		field, ok := termLabels[name]
		if !ok {
			if name != "" {
				e.noteUnknown("rental_terms", name)
			}
			continue
		}

		switch field {
		case "utilities_payment":
			terms.UtilitiesPayment = value
		case "security_deposit":
			terms.SecurityDeposit = e.normalizer.CleanNumeric(value)
		case "commission":
			terms.Commission = value
		case "prepayment":
			terms.Prepayment = value
		case "rental_period":
			terms.RentalPeriod = value
		case "living_conditions":
			terms.LivingConditions = value
		case "negotiable":
			terms.Negotiable = value
		}
	}
	return terms, terms.Any()
}

// ApartmentDetails reads the first summary group (the apartment itself).
func (e *Extractor) ApartmentDetails(p Page, offerID string) (*models.ApartmentDetails, bool) {
	details := &models.ApartmentDetails{OfferID: offerID}
	groups := p.Find(summaryGroupSelector)
	if len(groups) < 1 {
		return details, false
	}

	for name, value := range e.summaryPairs(groups[0], "apartment_details") {
		switch apartmentLabels[name] {
		case "apartment_type":
			details.ApartmentType = value
		case "layout":
			details.Layout = value
		case "total_area":
			details.TotalArea = value
		case "living_area":
			details.LivingArea = value
		case "kitchen_area":
			details.KitchenArea = value
		case "ceiling_height":
			details.CeilingHeight = value
		case "bathroom":
			details.Bathroom = value
		case "balcony":
			details.Balcony = value
		case "sleeping_places":
			details.SleepingPlaces = value
		case "renovation":
			details.Renovation = value
		case "view":
			details.View = value
		}
	}
	return details, details.Any()
}

// BuildingDetails reads the second summary group (the building).
func (e *Extractor) BuildingDetails(p Page, offerID string) (*models.BuildingDetails, bool) {
	details := &models.BuildingDetails{OfferID: offerID}
	groups := p.Find(summaryGroupSelector)
	if len(groups) < 2 {
		return details, false
	}

	for name, value := range e.summaryPairs(groups[1], "building_details") {
		switch buildingLabels[name] {
		case "year_built":
			details.YearBuilt = value
		case "building_series":
			details.BuildingSeries = value
		case "garbage_chute":
			details.GarbageChute = value
		case "elevators":
			details.Elevators = value
		case "building_type":
			details.BuildingType = value
		case "ceiling_type":
			details.CeilingType = value
		case "parking":
			details.Parking = value
		case "entrances":
			details.Entrances = value
		case "heating":
			details.Heating = value
		case "emergency":
			details.Emergency = value
		case "gas_supply":
			details.GasSupply = value
		}
	}
	return details, details.Any()
}

// summaryPairs collects the label/value p-tag pairs of one summary group.
func (e *Extractor) summaryPairs(group Element, category string) map[string]string {
	known := apartmentLabels
	if category == "building_details" {
		known = buildingLabels
	}

	pairs := make(map[string]string)
	for _, item := range group.Find(summaryItemSelector) {
		ps := item.Find("p")
		if len(ps) < 2 {
			continue
		}
		name := ps[0].Text()
		if _, ok := known[name]; !ok {
			if name != "" {
				e.noteUnknown(category, name)
			}
			continue
		}
		pairs[name] = ps[1].Text()
	}
	return pairs
}

// Estimation hunts for the lazily rendered valuation widget: a bounded
// number of passes over several scroll stops, trying every known selector at
// each stop. The first digit-bearing text wins.
func (e *Extractor) Estimation(p Page, offerID string) (*models.Estimation, bool) {
	const maxAttempts = 3

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		for _, stop := range estimationScrollStops {
			if err := p.ScrollTo(stop); err != nil {
				e.logger.Debug("[cian] %s: scroll to %.0f%%: %v", offerID, stop*100, err)
				continue
			}
			for _, selector := range estimationSelectors {
				for _, el := range p.Find(selector) {
					text := el.Text()
					if text == "" || !containsDigitRegex.MatchString(text) {
						continue
					}
					digits := e.normalizer.CleanNumeric(text)
					if digits == "" {
						continue
					}
					return &models.Estimation{
						OfferID:             offerID,
						EstimatedPrice:      text,
						EstimatedPriceClean: digits,
					}, true
				}
			}
		}

		if e.ScreenshotDir != "" {
			shot := filepath.Join(e.ScreenshotDir,
				fmt.Sprintf("estimation_%s_attempt_%d.png", offerID, attempt))
			if err := p.Screenshot(shot); err != nil {
				e.logger.Debug("[cian] %s: screenshot: %v", offerID, err)
			}
		}
		if attempt < maxAttempts {
			e.logger.Debug("[cian] %s: no estimation on attempt %d/%d", offerID, attempt, maxAttempts)
			time.Sleep(e.RetryDelay * time.Duration(attempt))
		}
	}
	return nil, false
}

// Unpublished reports whether the offer carries the taken-down banner.
func (e *Extractor) Unpublished(p Page) bool {
	for _, el := range p.Find(unpublishedSelector) {
		if strings.Contains(el.Text(), "снято с публикации") {
			return true
		}
	}
	return false
}

// UpdatedDate reads the "Обновлено: ..." metadata line. Both values are empty
// when the line is absent.
func (e *Extractor) UpdatedDate(p Page) (string, string) {
	els := p.Find(updatedDateSelector)
	if len(els) == 0 {
		return "", ""
	}

	m := updatedDateRegexp.FindStringSubmatch(els[0].Text())
	if m == nil {
		return "", ""
	}
	raw := strings.TrimSpace(m[1])
	iso, ok := e.normalizer.NormalizeDate(raw)
	if !ok {
		e.logger.Warn("[cian] unrecognized updated date %q", raw)
	}
	return raw, iso
}

func (e *Extractor) noteUnknown(category, label string) {
	key := category + ": " + label
	if e.unknown[key] == 0 {
		e.logger.Debug("[cian] unknown %s label: %q", category, label)
	}
	e.unknown[key]++
}

// UnknownLabels returns the site labels seen but not mapped, sorted, for the
// end-of-run report.
func (e *Extractor) UnknownLabels() []string {
	labels := make([]string, 0, len(e.unknown))
	for key := range e.unknown {
		labels = append(labels, key)
	}
	sort.Strings(labels)
	return labels
}
