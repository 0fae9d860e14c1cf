package vm

// Budget is the CPU allowance of one executor slice, in abstract work
// units. It only ever decreases. Everything running in the slice draws from
// the same budget, coroutines included.
type Budget struct {
	limited   bool
	remaining int64
	used      int64
}

// NewBudget creates a budget of limit units; a nil limit never runs out.
func NewBudget(limit *int64) *Budget {
	if limit == nil {
		return &Budget{}
	}
	return &Budget{limited: true, remaining: max(*limit, 0)}
}

// Withdraw takes units from the budget. It withdraws nothing and returns
// false when the remaining allowance cannot cover them.
func (b *Budget) Withdraw(units int64) bool {
	if b.limited {
		if units > b.remaining {
			return false
		}
		b.remaining -= units
	}
	b.used += units
	return true
}

// Remaining returns the units left; ok is false for an unlimited budget.
func (b *Budget) Remaining() (units int64, ok bool) {
	return b.remaining, b.limited
}

// Used returns the units withdrawn so far.
func (b *Budget) Used() int64 { return b.used }
