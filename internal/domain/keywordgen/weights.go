package keywordgen

// Category is the classification assigned to one product-name token
type Category string

const (
	CategoryModel    Category = "MODEL"
	CategoryBrand    Category = "BRAND"
	CategoryType     Category = "TYPE"
	CategorySeries   Category = "SERIES"
	CategoryCapacity Category = "CAPACITY"
	CategoryQuantity Category = "QUANTITY"
	CategorySize     Category = "SIZE"
	CategoryColor    Category = "COLOR"
	CategoryMaterial Category = "MATERIAL"
	CategoryFeature  Category = "FEATURE"
	CategoryModifier Category = "MODIFIER"
)

// weights score each category when summing candidate keywords. MODIFIER is
// negative so promotional noise never wins.
var weights = map[Category]int{
	CategoryModel:    10,
	CategoryBrand:    9,
	CategoryType:     9,
	CategorySeries:   7,
	CategoryCapacity: 5,
	CategoryQuantity: 4,
	CategorySize:     4,
	CategoryColor:    3,
	CategoryMaterial: 3,
	CategoryFeature:  3,
	CategoryModifier: -2,
}

// Weight returns the scoring weight of a category
func Weight(c Category) int {
	return weights[c]
}

// categoryOrder is the marketplace's canonical product-name ordering, used
// when joining tokens into a candidate keyword.
var categoryOrder = []Category{
	CategoryBrand, CategorySeries, CategoryModel, CategoryType,
	CategoryColor, CategoryMaterial, CategoryQuantity, CategorySize, CategoryCapacity,
	CategoryFeature,
}

var orderIndex = func() map[Category]int {
	m := make(map[Category]int, len(categoryOrder))
	for i, c := range categoryOrder {
		m[c] = i
	}
	return m
}()
