package ledger

import (
	"fmt"
	"sync"
)

// Ledger is a single-asset account balance store. The total supply is
// fixed at construction and credited in full to the owner address;
// after that the only mutation is Transfer. All access goes through
// the exported methods, the balance map is never shared.
type Ledger struct {
	mu          sync.RWMutex
	name        string // Nombre del token
	symbol      string // Símbolo del token (e.g., ANCT)
	totalSupply uint64
	owner       string
	balances    map[string]uint64
}

// New creates a ledger whose entire supply belongs to owner.
func New(name, symbol string, totalSupply uint64, owner string) *Ledger {
	return &Ledger{
		name:        name,
		symbol:      symbol,
		totalSupply: totalSupply,
		owner:       owner,
		balances:    map[string]uint64{owner: totalSupply}, // El creador posee inicialmente todos los tokens
	}
}

// Restore rebuilds a ledger from persisted state. The state must still
// satisfy conservation: the balances have to add up to totalSupply
// exactly, otherwise the snapshot is rejected with ErrConservation.
func Restore(name, symbol string, totalSupply uint64, owner string, balances map[string]uint64) (*Ledger, error) {
	var sum uint64
	for addr, bal := range balances {
		if bal > totalSupply || sum > totalSupply-bal {
			return nil, fmt.Errorf("%w: balance of %s overflows total supply %d", ErrConservation, addr, totalSupply)
		}
		sum += bal
	}
	if sum != totalSupply {
		return nil, fmt.Errorf("%w: balances sum to %d, total supply is %d", ErrConservation, sum, totalSupply)
	}

	copied := make(map[string]uint64, len(balances))
	for addr, bal := range balances {
		copied[addr] = bal
	}

	return &Ledger{
		name:        name,
		symbol:      symbol,
		totalSupply: totalSupply,
		owner:       owner,
		balances:    copied,
	}, nil
}

// Transfer moves amount from one address to the other. It fails with
// InsufficientBalanceError when the sender does not hold amount, and a
// failed call mutates nothing. The debit and the credit happen under
// one write lock, so no reader ever observes a half-applied transfer.
func (l *Ledger) Transfer(from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	available := l.balances[from]
	if available < amount {
		return &InsufficientBalanceError{Requested: amount, Available: available}
	}

	// Self transfers and zero amounts succeed without touching the map.
	if amount == 0 || from == to {
		return nil
	}

	l.balances[from] = available - amount
	l.balances[to] += amount
	return nil
}

// BalanceOf returns the balance of address, or zero if the address has
// never held tokens. It never fails and never mutates.
func (l *Ledger) BalanceOf(address string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[address]
}

// Balances returns a consistent snapshot copy of the balance map.
func (l *Ledger) Balances() map[string]uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snapshot := make(map[string]uint64, len(l.balances))
	for addr, bal := range l.balances {
		snapshot[addr] = bal
	}
	return snapshot
}

// TotalSupply returns the fixed supply set at construction.
func (l *Ledger) TotalSupply() uint64 {
	return l.totalSupply
}

// Owner returns the address that received the initial supply.
func (l *Ledger) Owner() string {
	return l.owner
}

func (l *Ledger) Name() string {
	return l.name
}

func (l *Ledger) Symbol() string {
	return l.symbol
}
