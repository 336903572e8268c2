package model

import (
	"encoding/json"
	"time"
)

// Debt records an amount one named party owes another. Parties are free
// text, not references to user accounts; the same name may appear in any
// number of debts.
type Debt struct {
	ID          int64     `json:"id"`
	FromUser    string    `json:"from_user"`
	ToUser      string    `json:"to_user"`
	Amount      float64   `json:"amount"`
	Paid        float64   `json:"paid"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Remaining is the unsettled part of the debt. It is derived at read time
// and never stored. Paid may exceed Amount, so the result can be negative.
func (d *Debt) Remaining() float64 {
	return d.Amount - d.Paid
}

// MarshalJSON adds the derived remaining field to the wire form.
func (d Debt) MarshalJSON() ([]byte, error) {
	type alias Debt
	return json.Marshal(struct {
		alias
		Remaining float64 `json:"remaining"`
	}{
		alias:     alias(d),
		Remaining: d.Remaining(),
	})
}
