package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumBalances(l *Ledger) uint64 {
	var sum uint64
	for _, bal := range l.Balances() {
		sum += bal
	}
	return sum
}

func TestNewCreditsOwner(t *testing.T) {
	l := New("AncapToken", "ANCT", 1000, "owner")

	assert.Equal(t, uint64(1000), l.TotalSupply())
	assert.Equal(t, uint64(1000), l.BalanceOf("owner"))
	assert.Equal(t, "owner", l.Owner())
	assert.Equal(t, "AncapToken", l.Name())
	assert.Equal(t, "ANCT", l.Symbol())
}

func TestBalanceOfUnknownAddressIsZero(t *testing.T) {
	l := New("AncapToken", "ANCT", 1000, "owner")
	assert.Equal(t, uint64(0), l.BalanceOf("never-seen"))
}

func TestTransferScenario(t *testing.T) {
	l := New("AncapToken", "ANCT", 1000, "owner")

	require.NoError(t, l.Transfer("owner", "addr1", 50))
	assert.Equal(t, uint64(950), l.BalanceOf("owner"))
	assert.Equal(t, uint64(50), l.BalanceOf("addr1"))

	err := l.Transfer("addr1", "addr2", 100)
	require.Error(t, err)
	assert.True(t, IsInsufficientBalance(err))
	assert.Equal(t, uint64(50), l.BalanceOf("addr1"))
	assert.Equal(t, uint64(0), l.BalanceOf("addr2"))
}

func TestTransferInsufficientCarriesAmounts(t *testing.T) {
	l := New("AncapToken", "ANCT", 100, "owner")

	err := l.Transfer("owner", "addr1", 150)
	require.Error(t, err)

	var insufficient *InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, uint64(150), insufficient.Requested)
	assert.Equal(t, uint64(100), insufficient.Available)

	// Rejection left everything untouched
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))
	assert.Equal(t, uint64(0), l.BalanceOf("addr1"))
	assert.Equal(t, uint64(100), sumBalances(l))
}

func TestTransferFromEmptyAccount(t *testing.T) {
	l := New("AncapToken", "ANCT", 100, "owner")

	err := l.Transfer("ghost", "owner", 1)
	require.True(t, IsInsufficientBalance(err))
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))
}

func TestTransferZeroAmount(t *testing.T) {
	l := New("AncapToken", "ANCT", 100, "owner")

	require.NoError(t, l.Transfer("owner", "addr1", 0))
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))
	assert.Equal(t, uint64(0), l.BalanceOf("addr1"))

	// A zero transfer between two empty accounts also succeeds and
	// creates no entries.
	require.NoError(t, l.Transfer("ghost1", "ghost2", 0))
	assert.Len(t, l.Balances(), 1)
}

func TestSelfTransfer(t *testing.T) {
	l := New("AncapToken", "ANCT", 100, "owner")

	require.NoError(t, l.Transfer("owner", "owner", 60))
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))

	// The precondition still applies to a self transfer
	err := l.Transfer("owner", "owner", 101)
	require.True(t, IsInsufficientBalance(err))
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))
}

func TestConservationAcrossTransfers(t *testing.T) {
	l := New("AncapToken", "ANCT", 1000, "owner")

	transfers := []struct {
		from, to string
		amount   uint64
	}{
		{"owner", "a", 300},
		{"owner", "b", 200},
		{"a", "c", 150},
		{"b", "a", 200},
		{"c", "owner", 150},
		{"a", "a", 50},
		{"b", "c", 5}, // fails, b is empty
	}

	for _, tr := range transfers {
		_ = l.Transfer(tr.from, tr.to, tr.amount)
		assert.Equal(t, uint64(1000), sumBalances(l))
	}
}

func TestConcurrentTransfersConserveSupply(t *testing.T) {
	const workers = 16
	const rounds = 200

	l := New("AncapToken", "ANCT", 1_000_000, "owner")
	accounts := []string{"owner", "a", "b", "c", "d"}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				from := accounts[(seed+j)%len(accounts)]
				to := accounts[(seed+j+1)%len(accounts)]
				_ = l.Transfer(from, to, uint64(j%7))
				_ = l.BalanceOf(to)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint64(1_000_000), sumBalances(l))
}

func TestRestoreValidState(t *testing.T) {
	l, err := Restore("AncapToken", "ANCT", 100, "owner", map[string]uint64{
		"owner": 70,
		"addr1": 30,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(70), l.BalanceOf("owner"))
	assert.Equal(t, uint64(30), l.BalanceOf("addr1"))
	assert.Equal(t, uint64(100), l.TotalSupply())
}

func TestRestoreRejectsBrokenConservation(t *testing.T) {
	_, err := Restore("AncapToken", "ANCT", 100, "owner", map[string]uint64{
		"owner": 70,
		"addr1": 40,
	})
	require.ErrorIs(t, err, ErrConservation)

	_, err = Restore("AncapToken", "ANCT", 100, "owner", map[string]uint64{
		"owner": 99,
	})
	require.ErrorIs(t, err, ErrConservation)
}

func TestRestoreDoesNotAliasInput(t *testing.T) {
	balances := map[string]uint64{"owner": 100}
	l, err := Restore("AncapToken", "ANCT", 100, "owner", balances)
	require.NoError(t, err)

	balances["owner"] = 0
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))
}

func TestBalancesReturnsCopy(t *testing.T) {
	l := New("AncapToken", "ANCT", 100, "owner")

	snapshot := l.Balances()
	snapshot["owner"] = 0
	assert.Equal(t, uint64(100), l.BalanceOf("owner"))
}
