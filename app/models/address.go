package models

import "errors"

// Address is a saved shipping address.
type Address struct {
	ID        ID     `json:"id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	Phone     string `json:"phone"`
	IsDefault bool   `json:"is_default"`
}

// Validate requires an id and a street.
func (a Address) Validate() error {
	if a.ID.IsZero() || a.Street == "" {
		return errors.New("address: id and street are required")
	}
	return nil
}

// Line formats the address the way orders store it.
func (a Address) Line() string {
	if a.City == "" {
		return a.Street
	}
	return a.Street + ", " + a.City
}

// AddressInput is the create body.
type AddressInput struct {
	Street    string `json:"street"     validate:"required,max=255"`
	City      string `json:"city"       validate:"required,max=100"`
	Phone     string `json:"phone"      validate:"required,phone"`
	IsDefault bool   `json:"is_default"`
}
