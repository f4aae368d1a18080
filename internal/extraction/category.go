package extraction

import (
	"regexp"
	"strings"
)

// Category is a receipt category label
type Category string

const (
	FoodAndDrink   Category = "Food & Drink"
	Travel         Category = "Travel"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Groceries      Category = "Groceries"
	Healthcare     Category = "Healthcare"
	Entertainment  Category = "Entertainment"
	Utilities      Category = "Utilities"
	Insurance      Category = "Insurance"
	Banking        Category = "Banking"
	Other          Category = "Other"
)

// Categories lists the built-in labels in display order
var Categories = []Category{
	FoodAndDrink, Travel, Transportation, Shopping, Groceries, Healthcare,
	Entertainment, Utilities, Insurance, Banking, Other,
}

// keywordCategory is one entry of the merchant keyword table
type keywordCategory struct {
	keyword  string
	category Category
}

// merchantCategories is scanned in order and the first substring hit wins,
// so "starbucks store" is Food & Drink and never Shopping. Matching is plain
// containment: "hotelier" matches "hotel" and "dinner" matches "inn".
var merchantCategories = []keywordCategory{
	{"starbucks", FoodAndDrink},
	{"mcdonalds", FoodAndDrink},
	{"subway", FoodAndDrink},
	{"pizza", FoodAndDrink},
	{"restaurant", FoodAndDrink},
	{"cafe", FoodAndDrink},
	{"coffee", FoodAndDrink},
	{"bar", FoodAndDrink},
	{"diner", FoodAndDrink},

	{"hotel", Travel},
	{"motel", Travel},
	{"inn", Travel},
	{"resort", Travel},
	{"airline", Travel},
	{"airport", Travel},
	{"uber", Transportation},
	{"lyft", Transportation},
	{"taxi", Transportation},
	{"gas", Transportation},
	{"shell", Transportation},
	{"chevron", Transportation},
	{"exxon", Transportation},

	{"walmart", Shopping},
	{"target", Shopping},
	{"amazon", Shopping},
	{"costco", Shopping},
	{"grocery", Groceries},
	{"supermarket", Groceries},
	{"safeway", Groceries},
	{"kroger", Groceries},

	{"pharmacy", Healthcare},
	{"cvs", Healthcare},
	{"walgreens", Healthcare},
	{"hospital", Healthcare},
	{"clinic", Healthcare},
	{"doctor", Healthcare},

	{"movie", Entertainment},
	{"theater", Entertainment},
	{"cinema", Entertainment},
	{"netflix", Entertainment},
	{"spotify", Entertainment},

	{"electric", Utilities},
	{"water", Utilities},
	{"internet", Utilities},
	{"phone", Utilities},
	{"insurance", Insurance},
	{"bank", Banking},
}

type categoryPattern struct {
	re       *regexp.Regexp
	category Category
}

// Fallback word patterns, consulted only when no table keyword matched.
var categoryPatterns = []categoryPattern{
	{regexp.MustCompile(`\b(?:food|dining|eatery|bistro|kitchen|grill|bakery|deli|burger|taco)\b`), FoodAndDrink},
	{regexp.MustCompile(`\b(?:fuel|parking|transit|metro|toll|rideshare|petrol)\b`), Transportation},
	{regexp.MustCompile(`\b(?:store|shop|mart|outlet|boutique|retail)\b`), Shopping},
	{regexp.MustCompile(`\b(?:medical|health|dental|rx|urgent care|optical)\b`), Healthcare},
	{regexp.MustCompile(`\b(?:utility|utilities|electricity|energy|wireless|telecom)\b`), Utilities},
	{regexp.MustCompile(`\b(?:tickets?|concert|museum|arcade|bowling|games?)\b`), Entertainment},
	{regexp.MustCompile(`\b(?:flights?|airways|airlines|lodging|suites|hostel|booking)\b`), Travel},
}

// SuggestCategory maps a merchant name or receipt text to a category.
// It never returns an empty label; unmatched text is Other.
func SuggestCategory(text string) Category {
	lower := strings.ToLower(text)

	for _, kc := range merchantCategories {
		if strings.Contains(lower, kc.keyword) {
			return kc.category
		}
	}

	for _, p := range categoryPatterns {
		if p.re.MatchString(lower) {
			return p.category
		}
	}

	return Other
}

// ClassifyReceipt returns the merchant's category unless it is Other, in
// which case the full receipt text is classified instead.
func ClassifyReceipt(merchant *string, fullText string) Category {
	if merchant != nil {
		if c := SuggestCategory(*merchant); c != Other {
			return c
		}
	}
	return SuggestCategory(fullText)
}
