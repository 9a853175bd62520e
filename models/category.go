package models

// Category is one of the fixed job categories.
type Category string

// CategoryAll is the feed sentinel meaning "no category filter".
const CategoryAll Category = "all"

const (
	CategoryPlumber      Category = "plumber"
	CategoryOffice       Category = "office"
	CategoryDriver       Category = "driver"
	CategoryChef         Category = "chef"
	CategoryMedical      Category = "medical"
	CategoryEducation    Category = "education"
	CategoryConstruction Category = "construction"
	CategoryRetail       Category = "retail"
	CategoryService      Category = "service"
	CategoryCleaning     Category = "cleaning"
	CategoryLogistics    Category = "logistics"
	CategoryBeauty       Category = "beauty"
	CategoryTextile      Category = "textile"
)

// Categories lists the assignable categories in display order.
var Categories = []Category{
	CategoryPlumber,
	CategoryOffice,
	CategoryDriver,
	CategoryChef,
	CategoryMedical,
	CategoryEducation,
	CategoryConstruction,
	CategoryRetail,
	CategoryService,
	CategoryCleaning,
	CategoryLogistics,
	CategoryBeauty,
	CategoryTextile,
}

// IsKnown reports whether c can be assigned to a listing.
func (c Category) IsKnown() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Locale is a translation language carried by optional listing columns.
// Greek is the base language and has no dedicated columns.
type Locale string

const (
	LocaleEL Locale = "el"
	LocaleEN Locale = "en"
	LocaleZH Locale = "zh"
	LocaleRU Locale = "ru"
	LocaleES Locale = "es"
	LocaleDE Locale = "de"
)
