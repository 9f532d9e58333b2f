package observe

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tmplledger/internal/ledger"
	"github.com/roach88/tmplledger/internal/logger"
	"github.com/roach88/tmplledger/internal/metrics"
	"github.com/roach88/tmplledger/internal/store/memstore"
	ledgertest "github.com/roach88/tmplledger/internal/testutil"
)

func TestStore(t *testing.T) {
	ledgertest.RunStoreSuite(t, func(*testing.T) ledger.Store {
		return New(memstore.New(), nil, metrics.New(prometheus.NewRegistry()))
	})
}

func TestStore_LogsAndMeasures(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "debug", Output: &buf})
	m := metrics.New(prometheus.NewRegistry())

	s := New(memstore.New(), log, m)
	l := ledgertest.NewLedger(s)

	_, _, err := l.Create(ctx, ledger.CreateInput{DocumentID: "d", Content: "A"})
	require.NoError(t, err)
	_, err = l.GetActive(ctx, "d")
	require.NoError(t, err)

	// Create: find active, find all, update, insert.
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("atomic", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("insert", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("update", "success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("find", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("view", "success")))

	out := buf.String()
	assert.Contains(t, out, `"component":"store"`)
	assert.Contains(t, out, `"operation":"insert"`)
	assert.Contains(t, out, `"document_id":"d"`)
	assert.Equal(t, 7, strings.Count(out, "store operation completed"))
}

func TestStore_RecordsErrors(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "error", Output: &buf})
	m := metrics.New(prometheus.NewRegistry())

	s := New(memstore.New(), log, m)

	err := s.View(ctx, func(tx ledger.Tx) error {
		return tx.Insert(ctx, ledger.Record{DocumentID: "d", Version: 1})
	})
	require.ErrorIs(t, err, ledger.ErrReadOnly)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("insert", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOperationsTotal.WithLabelValues("view", "error")))
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "read-only transaction")
}

func TestStore_WrapsTransactions(t *testing.T) {
	ctx := context.Background()
	s := New(memstore.New(), nil, nil)

	err := s.Atomic(ctx, "d", func(tx ledger.Tx) error {
		_, ok := tx.(*observedTx)
		assert.True(t, ok, "Atomic must hand fn an observed transaction")
		return nil
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx ledger.Tx) error {
		_, ok := tx.(*observedTx)
		assert.True(t, ok, "View must hand fn an observed transaction")
		return nil
	})
	require.NoError(t, err)
}
