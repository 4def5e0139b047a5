// Package domain defines the core business types for the product aggregator.
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Condition is the canonical item condition, independent of the upstream
// marketplace vocabulary.
type Condition string

// Canonical condition taxonomy.
const (
	ConditionNew             Condition = "NEW"
	ConditionLikeNew         Condition = "LIKE_NEW"
	ConditionNewOther        Condition = "NEW_OTHER"
	ConditionNewWithDefects  Condition = "NEW_WITH_DEFECTS"
	ConditionUsedExcellent   Condition = "USED_EXCELLENT"
	ConditionUsedVeryGood    Condition = "USED_VERY_GOOD"
	ConditionUsedGood        Condition = "USED_GOOD"
	ConditionUsedAcceptable  Condition = "USED_ACCEPTABLE"
	ConditionUsed            Condition = "USED"
	ConditionCertifiedRefurb Condition = "CERTIFIED_REFURBISHED"
	ConditionExcellentRefurb Condition = "EXCELLENT_REFURBISHED"
	ConditionVeryGoodRefurb  Condition = "VERY_GOOD_REFURBISHED"
	ConditionGoodRefurb      Condition = "GOOD_REFURBISHED"
	ConditionSellerRefurb    Condition = "SELLER_REFURBISHED"
	ConditionRefurbished     Condition = "REFURBISHED"
	ConditionForParts        Condition = "FOR_PARTS"
	ConditionUnknown         Condition = "UNKNOWN"
)

// Conditions lists every member of the canonical taxonomy.
var Conditions = []Condition{
	ConditionNew,
	ConditionLikeNew,
	ConditionNewOther,
	ConditionNewWithDefects,
	ConditionUsedExcellent,
	ConditionUsedVeryGood,
	ConditionUsedGood,
	ConditionUsedAcceptable,
	ConditionUsed,
	ConditionCertifiedRefurb,
	ConditionExcellentRefurb,
	ConditionVeryGoodRefurb,
	ConditionGoodRefurb,
	ConditionSellerRefurb,
	ConditionRefurbished,
	ConditionForParts,
	ConditionUnknown,
}

// Valid reports whether c is a member of the canonical taxonomy.
func (c Condition) Valid() bool {
	for _, known := range Conditions {
		if c == known {
			return true
		}
	}
	return false
}

// IsNew reports whether c belongs to the NEW filter bucket.
func (c Condition) IsNew() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionNewOther, ConditionNewWithDefects:
		return true
	default:
		return false
	}
}

// ConditionFilter selects which condition bucket a search keeps.
type ConditionFilter string

// Condition filter values.
const (
	FilterAll  ConditionFilter = "ALL"
	FilterNew  ConditionFilter = "NEW"
	FilterUsed ConditionFilter = "USED"
)

// Matches reports whether a product with condition c passes the filter.
// UNKNOWN only ever passes ALL.
func (f ConditionFilter) Matches(c Condition) bool {
	switch f {
	case FilterAll:
		return true
	case FilterNew:
		return c.IsNew()
	case FilterUsed:
		return c != ConditionUnknown && !c.IsNew()
	default:
		return false
	}
}

// ParseConditionFilter accepts "all", "new" or "used" in any case.
// Empty input means ALL.
func ParseConditionFilter(s string) (ConditionFilter, bool) {
	switch f := ConditionFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, true
	case FilterAll, FilterNew, FilterUsed:
		return f, true
	default:
		return "", false
	}
}

// SortKey selects the ordering of a result set.
type SortKey string

// Sort keys.
const (
	SortPriceAsc   SortKey = "PRICE_ASC"
	SortPriceDesc  SortKey = "PRICE_DESC"
	SortRatingAsc  SortKey = "RATING_ASC"
	SortRatingDesc SortKey = "RATING_DESC"
)

// ParseSortKey accepts the sort keys in any case, e.g. "price_asc".
// Empty input means PRICE_ASC.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToUpper(strings.TrimSpace(s))); k {
	case "":
		return SortPriceAsc, true
	case SortPriceAsc, SortPriceDesc, SortRatingAsc, SortRatingDesc:
		return k, true
	default:
		return "", false
	}
}

// SearchRequest is one validated product search. It is treated as
// immutable for the duration of the search.
type SearchRequest struct {
	Query     string          `json:"query"`
	Condition ConditionFilter `json:"condition"`
	Currency  string          `json:"currency"`
	Sort      SortKey         `json:"sort"`
}

// NormalizedProduct is a single listing after condition normalization and
// currency conversion. ConvertedPrice is expressed in Currency.
type NormalizedProduct struct {
	Title               string          `json:"title"`
	Price               decimal.Decimal `json:"price"`
	SourceCurrency      string          `json:"source_currency"`
	Currency            string          `json:"currency"`
	ConvertedPrice      decimal.Decimal `json:"converted_price"`
	Converted           bool            `json:"converted"`
	Condition           Condition       `json:"condition"`
	ConditionDisplay    string          `json:"condition_display"`
	SellerRatingPct     float64         `json:"seller_rating_pct"`
	SellerFeedbackCount int             `json:"seller_feedback_count"`
	OriginCountry       string          `json:"origin_country,omitempty"`
	URL                 string          `json:"url"`
}

// Credential is an upstream access token and the instant it stops being
// usable.
type Credential struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ValidAt reports whether the credential can still be sent at now.
func (c Credential) ValidAt(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// ExchangeRateSnapshot is an immutable point-in-time capture of rates
// relative to Base.
type ExchangeRateSnapshot struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Rate returns the rate for code relative to the snapshot base. The base
// itself is always 1.
func (s *ExchangeRateSnapshot) Rate(code string) (float64, bool) {
	if code == s.Base {
		return 1, true
	}
	r, ok := s.Rates[code]
	if !ok || r <= 0 {
		return 0, false
	}
	return r, true
}

// Age returns how old the snapshot is at now.
func (s *ExchangeRateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// CachedResults is the last search result set kept for export.
type CachedResults struct {
	Request  SearchRequest       `json:"request"`
	Products []NormalizedProduct `json:"products"`
	StoredAt time.Time           `json:"stored_at"`
}
