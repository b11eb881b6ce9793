package models

import "time"

// CartItem is one pending line item. Items are immutable once created;
// adding the same pizza twice yields two items. Field names follow the
// stored document shape.
type CartItem struct {
	ID          string         `json:"id,omitempty" mapstructure:"-"`
	DocPath     string         `json:"documentPath,omitempty" mapstructure:"-"`
	Name        string         `json:"name" mapstructure:"name"`
	Description string         `json:"description" mapstructure:"description"`
	Price       int64          `json:"price" mapstructure:"price"`
	Toppings    map[string]int `json:"toppings,omitempty" mapstructure:"toppings"`
	Customer    string         `json:"customer" mapstructure:"customer"`
	AddedAt     string         `json:"addedAt" mapstructure:"addedAt"`
	Timestamp   int64          `json:"timestamp" mapstructure:"timestamp"`
}

// NewCustomPizza builds a cart item from a topping selection; the price is
// the sum of the selected toppings' catalog prices.
func NewCustomPizza(selection map[string]int, now time.Time) CartItem {
	return CartItem{
		Name:        "Custom Pizza",
		Description: DescribeToppings(selection),
		Price:       ToppingsPrice(selection),
		Toppings:    selection,
		AddedAt:     now.UTC().Format(time.RFC3339),
		Timestamp:   now.UnixMilli(),
	}
}

// CartTotal is the derived cart value: the sum of item prices. It is never
// stored.
func CartTotal(items []CartItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Price
	}
	return sum
}
