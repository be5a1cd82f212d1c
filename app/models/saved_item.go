package models

import "errors"

// SavedItem is a wishlist entry. Product is the bare product id.
type SavedItem struct {
	ID      ID `json:"id"`
	Product ID `json:"product"`
}

// Validate requires both ids.
func (s SavedItem) Validate() error {
	if s.ID.IsZero() || s.Product.IsZero() {
		return errors.New("saved item: id and product are required")
	}
	return nil
}

// FindSaved returns the entry for productID, if saved.
func FindSaved(items []SavedItem, productID ID) (SavedItem, bool) {
	for _, it := range items {
		if it.Product == productID {
			return it, true
		}
	}
	return SavedItem{}, false
}
