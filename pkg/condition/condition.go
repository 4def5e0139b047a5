// Package condition maps the marketplace's inconsistent condition
// vocabularies onto the canonical domain.Condition taxonomy.
package condition

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	domain "github.com/donaldgifford/product-aggregator/pkg/types"
)

// UnknownDisplay is the display text for absent condition values.
const UnknownDisplay = "Unknown"

// mapping is a canonical bucket and its human display text.
type mapping struct {
	canonical domain.Condition
	display   string
}

// knownCodes maps normalized upstream condition codes to their bucket.
// Keys are upper case with runs of separators collapsed to "_".
var knownCodes = map[string]mapping{
	"NEW":                      {domain.ConditionNew, "New"},
	"LIKE_NEW":                 {domain.ConditionLikeNew, "Like New"},
	"NEW_OTHER":                {domain.ConditionNewOther, "New (Other)"},
	"NEW_WITH_DEFECTS":         {domain.ConditionNewWithDefects, "New with defects"},
	"PRE_OWNED_EXCELLENT":      {domain.ConditionUsedExcellent, "Pre-owned - Excellent"},
	"PRE_OWNED_GOOD":           {domain.ConditionUsedGood, "Pre-owned - Good"},
	"PRE_OWNED_FAIR":           {domain.ConditionUsedAcceptable, "Pre-owned - Fair"},
	"USED_EXCELLENT":           {domain.ConditionUsedExcellent, "Used - Excellent"},
	"USED_VERY_GOOD":           {domain.ConditionUsedVeryGood, "Used - Very Good"},
	"USED_GOOD":                {domain.ConditionUsedGood, "Used - Good"},
	"USED_ACCEPTABLE":          {domain.ConditionUsedAcceptable, "Used - Acceptable"},
	"CERTIFIED_REFURBISHED":    {domain.ConditionCertifiedRefurb, "Certified - Refurbished"},
	"EXCELLENT_REFURBISHED":    {domain.ConditionExcellentRefurb, "Excellent - Refurbished"},
	"VERY_GOOD_REFURBISHED":    {domain.ConditionVeryGoodRefurb, "Very Good - Refurbished"},
	"GOOD_REFURBISHED":         {domain.ConditionGoodRefurb, "Good - Refurbished"},
	"SELLER_REFURBISHED":       {domain.ConditionSellerRefurb, "Seller Refurbished"},
	"FOR_PARTS_OR_NOT_WORKING": {domain.ConditionForParts, "For parts or not working"},
	// legacy values
	"USED":        {domain.ConditionUsed, "Used"},
	"PRE_OWNED":   {domain.ConditionUsed, "Pre-owned"},
	"OPEN_BOX":    {domain.ConditionNewOther, "Open box"},
	"EXCELLENT":   {domain.ConditionUsedExcellent, "Excellent"},
	"VERY_GOOD":   {domain.ConditionUsedVeryGood, "Very Good"},
	"GOOD":        {domain.ConditionUsedGood, "Good"},
	"ACCEPTABLE":  {domain.ConditionUsedAcceptable, "Acceptable"},
	"FAIR":        {domain.ConditionUsedAcceptable, "Fair"},
	"REFURBISHED": {domain.ConditionRefurbished, "Refurbished"},
	"MINT":        {domain.ConditionNew, "Mint"},
	"PERFECT":     {domain.ConditionNew, "Perfect"},
	"PARTS_ONLY":  {domain.ConditionForParts, "Parts only"},
}

// exactOnly codes resolve by exact match but never by substring. "Near
// mint" is not new.
var exactOnly = map[string]bool{
	"REFURBISHED": true,
	"MINT":        true,
	"PERFECT":     true,
}

// matchOrder is the substring-match order: longest code first, then
// alphabetical, so the most specific code wins and results are stable.
var matchOrder = func() []string {
	codes := make([]string, 0, len(knownCodes))
	for code := range knownCodes {
		if !exactOnly[code] {
			codes = append(codes, code)
		}
	}
	slices.SortFunc(codes, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return codes
}()

// defaultDisplay is the display text for buckets reached by inference.
var defaultDisplay = map[domain.Condition]string{
	domain.ConditionUsedExcellent:   "Used - Excellent",
	domain.ConditionUsedVeryGood:    "Used - Very Good",
	domain.ConditionUsedGood:        "Used - Good",
	domain.ConditionUsedAcceptable:  "Used - Acceptable",
	domain.ConditionUsed:            "Used",
	domain.ConditionCertifiedRefurb: "Certified - Refurbished",
	domain.ConditionExcellentRefurb: "Excellent - Refurbished",
	domain.ConditionVeryGoodRefurb:  "Very Good - Refurbished",
	domain.ConditionGoodRefurb:      "Good - Refurbished",
	domain.ConditionSellerRefurb:    "Seller Refurbished",
	domain.ConditionRefurbished:     "Refurbished",
}

type qualifier struct {
	token     string
	canonical domain.Condition
}

// VERY_GOOD must be checked before GOOD.
var refurbQualifiers = []qualifier{
	{"EXCELLENT", domain.ConditionExcellentRefurb},
	{"VERY_GOOD", domain.ConditionVeryGoodRefurb},
	{"GOOD", domain.ConditionGoodRefurb},
	{"CERTIFIED", domain.ConditionCertifiedRefurb},
	{"SELLER", domain.ConditionSellerRefurb},
}

var usedQualifiers = []qualifier{
	{"EXCELLENT", domain.ConditionUsedExcellent},
	{"VERY_GOOD", domain.ConditionUsedVeryGood},
	{"GOOD", domain.ConditionUsedGood},
	{"ACCEPTABLE", domain.ConditionUsedAcceptable},
}

// minContainedLen guards the "input is contained by a code" direction of
// the substring match against one- and two-letter fragments.
const minContainedLen = 3

// Normalize maps a raw condition string to its canonical bucket and display
// text. Resolution order: exact code, substring match against known codes,
// qualifier inference for refurbished and used values, then UNKNOWN with
// the raw text preserved.
func Normalize(raw string) (domain.Condition, string) {
	trimmed := strings.TrimSpace(raw)
	if isAbsent(trimmed) {
		return domain.ConditionUnknown, UnknownDisplay
	}

	key := normalizeKey(trimmed)
	if key == "" {
		return domain.ConditionUnknown, trimmed
	}

	if m, ok := knownCodes[key]; ok {
		return m.canonical, m.display
	}

	if m, ok := substringMatch(key); ok {
		return m.canonical, m.display
	}

	if c, ok := infer(key); ok {
		return c, defaultDisplay[c]
	}

	return domain.ConditionUnknown, trimmed
}

// conditionIDs maps eBay's numeric condition identifiers.
var conditionIDs = map[string]string{
	"1000": "NEW",
	"1500": "NEW_OTHER",
	"1750": "NEW_WITH_DEFECTS",
	"2000": "CERTIFIED_REFURBISHED",
	"2010": "EXCELLENT_REFURBISHED",
	"2020": "VERY_GOOD_REFURBISHED",
	"2030": "GOOD_REFURBISHED",
	"2500": "SELLER_REFURBISHED",
	"2750": "LIKE_NEW",
	"3000": "USED",
	"4000": "USED_VERY_GOOD",
	"5000": "USED_GOOD",
	"6000": "USED_ACCEPTABLE",
	"7000": "FOR_PARTS_OR_NOT_WORKING",
}

// NormalizeWithID resolves raw as Normalize does and, only when that yields
// UNKNOWN, falls back to the numeric condition id. The raw text stays the
// display value when neither resolves.
func NormalizeWithID(raw, conditionID string) (domain.Condition, string) {
	c, display := Normalize(raw)
	if c != domain.ConditionUnknown {
		return c, display
	}
	code, ok := conditionIDs[strings.TrimSpace(conditionID)]
	if !ok {
		return c, display
	}
	m := knownCodes[code]
	return m.canonical, m.display
}

func isAbsent(s string) bool {
	if s == "" {
		return true
	}
	switch strings.ToLower(s) {
	case "null", "undefined":
		return true
	}
	return false
}

// normalizeKey upper-cases s and collapses every run of characters that
// are not letters or digits into a single "_".
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(r)
			continue
		}
		sep = true
	}
	return b.String()
}

// substringMatch matches on "_" token boundaries in either direction, so
// "BRAND_NEW" finds NEW but "RENEWED" does not. A refurbished input only
// matches refurbished codes.
func substringMatch(key string) (mapping, bool) {
	padded := "_" + key + "_"
	refurb := strings.Contains(key, "REFURBISHED")
	for _, code := range matchOrder {
		if refurb && !strings.Contains(code, "REFURBISHED") {
			continue
		}
		paddedCode := "_" + code + "_"
		if strings.Contains(padded, paddedCode) {
			return knownCodes[code], true
		}
		if len(key) >= minContainedLen && strings.Contains(paddedCode, padded) {
			return knownCodes[code], true
		}
	}
	return mapping{}, false
}

func infer(key string) (domain.Condition, bool) {
	if strings.Contains(key, "REFURBISHED") {
		if c, ok := firstQualifier(key, refurbQualifiers); ok {
			return c, true
		}
		return domain.ConditionRefurbished, true
	}
	if strings.Contains(key, "USED") || strings.Contains(key, "PRE_OWNED") {
		if c, ok := firstQualifier(key, usedQualifiers); ok {
			return c, true
		}
		return domain.ConditionUsed, true
	}
	return "", false
}

func firstQualifier(key string, qs []qualifier) (domain.Condition, bool) {
	for _, q := range qs {
		if strings.Contains(key, q.token) {
			return q.canonical, true
		}
	}
	return "", false
}
