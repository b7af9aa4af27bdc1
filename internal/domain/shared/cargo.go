package shared

import "fmt"

// CargoItem represents an individual cargo item in ship's hold
type CargoItem struct {
	Symbol string
	Name   string
	Units  int
}

// Cargo represents ship cargo manifest with detailed inventory
type Cargo struct {
	Capacity  int
	Units     int
	Inventory []CargoItem
}

// ItemUnits gets units of a specific trade good in cargo (0 if not present)
func (c *Cargo) ItemUnits(symbol string) int {
	for _, item := range c.Inventory {
		if item.Symbol == symbol {
			return item.Units
		}
	}
	return 0
}

// HasItem checks if cargo contains at least minUnits of a specific item
func (c *Cargo) HasItem(symbol string, minUnits int) bool {
	return c.ItemUnits(symbol) >= minUnits
}

// FreeCapacity calculates available cargo space
func (c *Cargo) FreeCapacity() int {
	return c.Capacity - c.Units
}

// IsEmpty checks if cargo hold is empty
func (c *Cargo) IsEmpty() bool {
	return c.Units == 0
}

// IsFull checks if cargo hold is full
func (c *Cargo) IsFull() bool {
	return c.Units >= c.Capacity
}

func (c *Cargo) String() string {
	return fmt.Sprintf("Cargo(%d/%d)", c.Units, c.Capacity)
}
