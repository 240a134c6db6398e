package stores

import "github.com/cartscout/backend/internal/domain"

// DemoStores lists the stores the demo catalog covers, in display order.
var DemoStores = []string{"costwise", "greenleaf", "midtown", "harvest"}

// DemoSources builds a static source per demo store.
func DemoSources() []domain.StoreSource {
	sources := make([]domain.StoreSource, len(DemoStores))
	for i, store := range DemoStores {
		sources[i] = NewStaticSource(StaticConfig{Store: store})
	}
	return sources
}

// DemoCatalog returns the built-in inventory for one demo store. Unknown
// stores get an empty catalog and answer every query with no_data.
func DemoCatalog(store string) []StaticProduct {
	switch domain.NormalizeStoreID(store) {
	case "costwise":
		return []StaticProduct{
			{
				Name: "rice flour bread", Price: 3.99, Available: true,
				Restrictions: []string{"gluten-free"},
				Ingredients:  []string{"rice flour", "water", "yeast", "salt"},
				AllergenNote: "contains: none",
			},
			{
				Name: "whole milk", Price: 2.99, Available: true,
				Ingredients:  []string{"whole milk", "vitamin d3"},
				AllergenNote: "contains: milk",
			},
			{
				Name: "large eggs", Price: 2.49, Available: true,
				AllergenNote: "contains: eggs",
			},
			{
				Name: "creamy peanut butter", Price: 2.98, Available: true,
				Restrictions: []string{"gluten-free"},
				Ingredients:  []string{"roasted peanuts", "sugar", "palm oil", "salt"},
				AllergenNote: "contains: peanuts",
			},
			{
				Name: "bananas", Price: 0.58, Available: true,
				Restrictions: []string{"vegan", "gluten-free"},
			},
		}
	case "greenleaf":
		return []StaticProduct{
			{
				Name: "sprouted grain bread", Price: 4.29, Available: true,
				Restrictions: []string{"vegan"},
				Ingredients:  []string{"sprouted wheat", "water", "yeast", "sea salt"},
				AllergenNote: "contains: wheat",
			},
			{
				Name: "organic whole milk", Price: 3.89, Available: true,
				Restrictions: []string{"organic"},
				AllergenNote: "contains: milk",
			},
			{
				Name: "cage-free large eggs", Price: 3.99, Available: true,
				Restrictions: []string{"cage-free"},
				AllergenNote: "contains: eggs",
			},
			{
				Name: "natural peanut butter", Price: 3.59, Available: true,
				Restrictions: []string{"gluten-free", "vegan"},
				Ingredients:  []string{"dry roasted peanuts", "sea salt"},
				AllergenNote: "contains: peanuts",
			},
			{
				Name: "organic bananas", Price: 0.79, Available: true,
				Restrictions: []string{"organic", "vegan", "gluten-free"},
			},
		}
	case "midtown":
		return []StaticProduct{
			{
				Name: "country white bread", Price: 3.49, Available: true,
				Restrictions: []string{"organic"},
				Ingredients:  []string{"organic wheat flour", "water", "cane sugar", "yeast"},
				AllergenNote: "contains: wheat",
			},
			{
				Name: "2% reduced fat milk", Price: 3.19, Available: true,
				AllergenNote: "contains: milk",
			},
			{
				Name: "large white eggs", Price: 2.79, Available: true,
				AllergenNote: "contains: eggs",
			},
			{
				Name: "crunchy peanut butter", Price: 3.29, Available: false,
				Ingredients:  []string{"roasted peanuts", "sugar", "hydrogenated vegetable oil"},
				AllergenNote: "contains: peanuts",
			},
		}
	case "harvest":
		return []StaticProduct{
			{
				Name: "seeded artisan bread", Price: 5.99, Available: true,
				Restrictions: []string{"organic", "vegan"},
				Ingredients:  []string{"organic spelt flour", "mixed seeds", "water", "sea salt"},
				AllergenNote: "contains: wheat, sesame",
			},
			{
				Name: "organic oat milk", Price: 4.49, Available: true,
				Restrictions: []string{"organic", "vegan", "dairy-free"},
				Ingredients:  []string{"oats", "water", "sunflower oil", "sea salt"},
				AllergenNote: "contains: oats",
			},
			{
				Name: "organic pasture-raised eggs", Price: 6.49, Available: true,
				Restrictions: []string{"organic", "pasture-raised"},
				AllergenNote: "contains: eggs",
			},
			{
				Name: "organic peanut butter", Price: 5.49, Available: true,
				Restrictions: []string{"organic", "gluten-free", "vegan"},
				Ingredients:  []string{"organic peanuts"},
				AllergenNote: "contains: peanuts",
			},
		}
	default:
		return nil
	}
}
