package preferences

import "strings"

// Option is one entry of a fixed choice catalog. Value is sent on the wire
// unchanged; LabelKey resolves the display text through the translation catalog.
type Option struct {
	Value    string `json:"value"`
	LabelKey string `json:"labelKey"`
}

// Catalog is an ordered option list for one form field.
type Catalog struct {
	Field   string   `json:"field"`
	Options []Option `json:"options"`
}

// Contains reports whether value is one of the catalog's wire values.
func (c Catalog) Contains(value string) bool {
	for _, o := range c.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Values returns the wire values in display order.
func (c Catalog) Values() []string {
	values := make([]string, len(c.Options))
	for i, o := range c.Options {
		values[i] = o.Value
	}
	return values
}

var (
	Cuisines = newCatalog(FieldCuisineType, "cuisine",
		"Italian", "Mexican", "Asian", "Mediterranean", "American", "Indian",
		"French", "Thai", "Japanese", "Chinese", "Greek", "Spanish", "Middle Eastern",
	)

	DietaryRestrictions = newCatalog(FieldDietary, "dietary",
		"Vegetarian", "Vegan", "Gluten-Free", "Dairy-Free", "Keto", "Paleo",
		"Low-Carb", "High-Protein", "Nut-Free", "Diabetic-Friendly",
	)

	CookingTimes = newCatalog(FieldCookingTime, "cookingTime",
		"Under 15 minutes", "15-30 minutes", "30-45 minutes", "45-60 minutes", "Over 1 hour",
	)

	MealTypes = newCatalog(FieldMealType, "mealType",
		"Breakfast", "Lunch", "Dinner", "Snack", "Dessert", "Appetizer", "Brunch",
	)
)

// Catalogs returns every catalog in form order.
func Catalogs() []Catalog {
	return []Catalog{Cuisines, DietaryRestrictions, CookingTimes, MealTypes}
}

// CatalogFor returns the single-select catalog backing field.
func CatalogFor(field string) (Catalog, bool) {
	switch field {
	case FieldCuisineType:
		return Cuisines, true
	case FieldCookingTime:
		return CookingTimes, true
	case FieldMealType:
		return MealTypes, true
	}
	return Catalog{}, false
}

func newCatalog(field, prefix string, values ...string) Catalog {
	options := make([]Option, len(values))
	for i, v := range values {
		options[i] = Option{Value: v, LabelKey: prefix + "." + labelSlug(v)}
	}
	return Catalog{Field: field, Options: options}
}

// labelSlug turns "Under 15 minutes" into "under_15_minutes".
func labelSlug(value string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
