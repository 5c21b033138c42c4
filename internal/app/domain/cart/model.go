// Package cart holds the shopping-cart domain model. The aggregate logic
// lives in services/cart; these types define its state and persisted shape.
package cart

import "github.com/gazexpress/gazexpress/internal/app/domain/catalog"

// Line is one bouteille/quantity pair. A cart holds at most one line per
// bouteille identifier.
type Line struct {
	Bouteille catalog.Bouteille `json:"bouteille"`
	Quantite  int64             `json:"quantite"`
}

// Coordinates is a delivery drop-off point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
