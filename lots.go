package stockledger

import (
	"time"
)

// Lot represents a single acquisition of an asset, used for FIFO cost basis
// calculations. Lots are derived from the ledger on every fold and never
// persisted.
type Lot struct {
	Acquired time.Time
	Quantity Quantity
	Cost     Money // Total cost of the lot (quantity * price + fees)
}

type lots []Lot

func (l lots) units() Quantity {
	var q Quantity
	for _, lot := range l {
		q = q.Add(lot.Quantity)
	}
	return q
}

func (l lots) cost(currency string) Money {
	c := M(0, currency)
	for _, lot := range l {
		c = c.Add(lot.Cost)
	}
	return c
}

// fifoCostOfSelling calculates the cost of selling a quantity of units using FIFO.
// The caller guarantees that quantityToSell does not exceed l.units().
func (l lots) fifoCostOfSelling(quantityToSell Quantity, currency string) Money {
	costOfSoldShares := M(0, currency)

	for _, currentLot := range l {
		if quantityToSell.IsZero() {
			break
		}
		if currentLot.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			costOfSoldPortion := currentLot.Cost.Mul(quantityToSell).Div(currentLot.Quantity)
			return costOfSoldShares.Add(costOfSoldPortion)
		}
		// Full sale of this lot
		costOfSoldShares = costOfSoldShares.Add(currentLot.Cost)
		quantityToSell = quantityToSell.Sub(currentLot.Quantity)
	}
	return costOfSoldShares
}

// sell reduces the available lots by a given quantity to sell using the FIFO method.
// It returns a new slice, l is left untouched.
func (l lots) sell(quantityToSell Quantity) lots {
	remainingLots := make(lots, 0, len(l))

	for _, currentLot := range l {
		if quantityToSell.IsZero() {
			remainingLots = append(remainingLots, currentLot)
			continue
		}

		if currentLot.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			costOfSoldPortion := currentLot.Cost.Mul(quantityToSell).Div(currentLot.Quantity)
			remainingLots = append(remainingLots, Lot{
				Acquired: currentLot.Acquired,
				Quantity: currentLot.Quantity.Sub(quantityToSell),
				Cost:     currentLot.Cost.Sub(costOfSoldPortion),
			})
			quantityToSell = Quantity{}
		} else {
			// Full sale of this lot
			quantityToSell = quantityToSell.Sub(currentLot.Quantity)
		}
	}
	return remainingLots
}

// split multiplies every lot quantity by ratio, costs are unchanged.
func (l lots) split(ratio Quantity) lots {
	out := make(lots, len(l))
	for i, lot := range l {
		lot.Quantity = lot.Quantity.Mul(ratio)
		out[i] = lot
	}
	return out
}
