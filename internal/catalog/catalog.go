// Package catalog holds the compiled-in product list and the cache policy
// it is stored under.
package catalog

import (
	"time"

	"github.com/fairyhunter13/product-catalog-service/internal/cache"
	"github.com/fairyhunter13/product-catalog-service/internal/model"
)

// ProductsCacheKey is the single key the product list is cached under.
const ProductsCacheKey = "products_data"

// Products builds the product list. Each call returns a fresh slice.
func Products() []model.Product {
	electronics1 := model.Category{ID: 1, Name: "Electronics"}
	electronics2 := model.Category{ID: 2, Name: "Electronics"}
	return []model.Product{
		{ID: 1, Name: "Laptop", Price: model.NewPrice("1200.50"), Stock: 25, Category: electronics1},
		{ID: 2, Name: "Headphones", Price: model.NewPrice("50.00"), Stock: 100, Category: electronics1},
		{ID: 3, Name: "Smartphone", Price: model.NewPrice("700.00"), Stock: 50, Category: electronics2},
		{ID: 4, Name: "Tablet", Price: model.NewPrice("250.00"), Stock: 35, Category: electronics2},
		{ID: 5, Name: "Smartwatch", Price: model.NewPrice("120.00"), Stock: 15, Category: model.Category{ID: 3, Name: "Wearables"}},
		{ID: 6, Name: "Keyboard", Price: model.NewPrice("35.00"), Stock: 50, Category: model.Category{ID: 4, Name: "Accessories"}},
	}
}

// CachePolicy is the expiration policy for the product list: evicted at the
// earlier of absolute after the write or sliding after the last read, and
// reclaimed after lower priority entries under pressure.
func CachePolicy(absolute, sliding time.Duration) cache.EntryOptions {
	return cache.EntryOptions{
		AbsoluteExpirationRelativeToNow: absolute,
		SlidingExpiration:               sliding,
		Priority:                        cache.PriorityHigh,
	}
}
