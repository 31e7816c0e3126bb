package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadLedgerBeforeInit(t *testing.T) {
	store := tempStore(t)

	initialized, err := store.Initialized()
	require.NoError(t, err)
	assert.False(t, initialized)

	_, err = store.LoadLedger()
	require.ErrorIs(t, err, ErrLedgerNotFound)
}

func TestSaveAndLoadLedger(t *testing.T) {
	store := tempStore(t)

	l := New("AncapToken", "ANCT", 1000, "owner")
	require.NoError(t, l.Transfer("owner", "addr1", 50))
	require.NoError(t, store.SaveLedger(l))

	initialized, err := store.Initialized()
	require.NoError(t, err)
	assert.True(t, initialized)

	loaded, err := store.LoadLedger()
	require.NoError(t, err)

	assert.Equal(t, "AncapToken", loaded.Name())
	assert.Equal(t, "ANCT", loaded.Symbol())
	assert.Equal(t, "owner", loaded.Owner())
	assert.Equal(t, uint64(1000), loaded.TotalSupply())
	assert.Equal(t, uint64(950), loaded.BalanceOf("owner"))
	assert.Equal(t, uint64(50), loaded.BalanceOf("addr1"))
	assert.Equal(t, l.Balances(), loaded.Balances())
}

func TestReloadedLedgerStillTransfers(t *testing.T) {
	store := tempStore(t)

	l := New("AncapToken", "ANCT", 1000, "owner")
	require.NoError(t, store.SaveLedger(l))

	loaded, err := store.LoadLedger()
	require.NoError(t, err)

	require.NoError(t, loaded.Transfer("owner", "addr1", 400))
	require.NoError(t, store.SaveLedger(loaded))

	reloaded, err := store.LoadLedger()
	require.NoError(t, err)
	assert.Equal(t, uint64(600), reloaded.BalanceOf("owner"))
	assert.Equal(t, uint64(400), reloaded.BalanceOf("addr1"))
}

func TestTransferJournal(t *testing.T) {
	store := tempStore(t)

	recs := []Record{
		NewRecord("owner", "a", 10),
		NewRecord("a", "b", 5),
		NewRecord("owner", "b", 7),
	}
	for _, rec := range recs {
		require.NoError(t, store.AppendTransfer(rec))
	}

	all, err := store.Transfers("", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, rec := range all {
		assert.Equal(t, recs[i].ID, rec.ID)
		assert.Equal(t, recs[i].From, rec.From)
		assert.Equal(t, recs[i].To, rec.To)
		assert.Equal(t, recs[i].Amount, rec.Amount)
	}

	forA, err := store.Transfers("a", 0)
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, "a", forA[0].To)
	assert.Equal(t, "a", forA[1].From)

	limited, err := store.Transfers("", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, recs[1].ID, limited[0].ID)
	assert.Equal(t, recs[2].ID, limited[1].ID)
}

func TestRecordSerializeRoundTrip(t *testing.T) {
	rec := NewRecord("owner", "addr1", 42)

	data, err := rec.Serialize()
	require.NoError(t, err)

	decoded, err := DeserializeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, decoded.ID)
	assert.Equal(t, rec.Amount, decoded.Amount)
	assert.True(t, rec.Timestamp.Equal(decoded.Timestamp))
}
