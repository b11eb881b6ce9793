package models

import (
	"fmt"
	"sort"
	"strings"
)

type ToppingCategory string

const (
	CategoryVeg    ToppingCategory = "veg"
	CategoryNonVeg ToppingCategory = "nonveg"
	CategoryExtra  ToppingCategory = "extra"
)

// Topping is an immutable catalog entry. Prices are whole rupees.
type Topping struct {
	Name     string          `json:"name"`
	Price    int64           `json:"price"`
	Category ToppingCategory `json:"category"`
}

var toppingCatalog = []Topping{
	{Name: "Onion", Price: 25, Category: CategoryVeg},
	{Name: "Capsicum", Price: 30, Category: CategoryVeg},
	{Name: "Olives", Price: 35, Category: CategoryVeg},
	{Name: "Sweet Corn", Price: 30, Category: CategoryVeg},
	{Name: "Paneer", Price: 40, Category: CategoryVeg},
	{Name: "Chicken", Price: 40, Category: CategoryNonVeg},
	{Name: "Sausage", Price: 40, Category: CategoryNonVeg},
	{Name: "Pepperoni", Price: 40, Category: CategoryNonVeg},
	{Name: "Cheese Burst", Price: 30, Category: CategoryExtra},
	{Name: "Extra Cheese", Price: 30, Category: CategoryExtra},
	{Name: "Jalapeños", Price: 30, Category: CategoryExtra},
}

// Toppings returns a copy of the catalog.
func Toppings() []Topping {
	out := make([]Topping, len(toppingCatalog))
	copy(out, toppingCatalog)
	return out
}

// ToppingByName looks up a catalog entry by its unique name.
func ToppingByName(name string) (Topping, bool) {
	for _, t := range toppingCatalog {
		if t.Name == name {
			return t, true
		}
	}
	return Topping{}, false
}

// ToppingsPrice sums the catalog price of each selected topping multiplied by
// its count. Unknown names contribute nothing.
func ToppingsPrice(selection map[string]int) int64 {
	var sum int64
	for name, count := range selection {
		if count <= 0 {
			continue
		}
		if t, ok := ToppingByName(name); ok {
			sum += t.Price * int64(count)
		}
	}
	return sum
}

// DescribeToppings renders a selection as "Name xN, ..." in stable name
// order, or "No toppings" for an empty selection.
func DescribeToppings(selection map[string]int) string {
	names := make([]string, 0, len(selection))
	for name, count := range selection {
		if count > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "No toppings"
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s x%d", name, selection[name])
	}
	return strings.Join(parts, ", ")
}
