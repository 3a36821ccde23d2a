package repository

import "fmt"

// InsufficientStockError reports which product blocked a checkout and how many
// units are still available.
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available", e.ProductName, e.Available)
}
