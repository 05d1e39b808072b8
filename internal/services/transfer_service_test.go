package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pharmapos_backend/internal/models"
)

func TestTransfer_MovesStockFEFO(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	soon := env.seedBatch(productID, storeA, "BN-SOON", 6, daysFromNow(10))
	late := env.seedBatch(productID, storeA, "BN-LATE", 20, daysFromNow(200))

	result, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeB, Quantity: 10,
	}, testUserID)

	require.NoError(t, err)
	require.NotEmpty(t, result.Reference)
	require.Len(t, result.Transfers, 2)

	// Soonest-expiring batch drained first.
	require.Equal(t, "BN-SOON", result.Transfers[0].BatchNumber)
	require.Equal(t, 6, result.Transfers[0].Quantity)
	require.Equal(t, "BN-LATE", result.Transfers[1].BatchNumber)
	require.Equal(t, 4, result.Transfers[1].Quantity)
	for _, transfer := range result.Transfers {
		require.Equal(t, models.TransferStatusReceived, transfer.Status)
		require.Equal(t, result.Reference, transfer.Reference)
	}

	soonAfter, err := env.ledger.GetBatch(soon.ID)
	require.NoError(t, err)
	require.Equal(t, 0, soonAfter.Quantity)
	lateAfter, err := env.ledger.GetBatch(late.ID)
	require.NoError(t, err)
	require.Equal(t, 16, lateAfter.Quantity)

	destTotal, err := env.ledger.ProductStock(productID, storeB)
	require.NoError(t, err)
	require.Equal(t, 10, destTotal)

	// Destination batches keep source batch numbers and expiries.
	destBatches, err := env.ledger.AvailableBatches(productID, storeB)
	require.NoError(t, err)
	require.Len(t, destBatches, 2)
	require.Equal(t, "BN-SOON", destBatches[0].BatchNumber)
	require.True(t, destBatches[0].ExpiryDate.Equal(soon.ExpiryDate))
}

func TestTransfer_ConservesTotalQuantity(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-001", 30, daysFromNow(90))

	before, err := env.ledger.ProductStock(productID, storeA)
	require.NoError(t, err)

	_, err = env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeB, Quantity: 12,
	}, testUserID)
	require.NoError(t, err)

	sourceAfter, err := env.ledger.ProductStock(productID, storeA)
	require.NoError(t, err)
	destAfter, err := env.ledger.ProductStock(productID, storeB)
	require.NoError(t, err)
	require.Equal(t, before, sourceAfter+destAfter)
}

func TestTransfer_MergesIntoExistingDestinationBatch(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-SHARED", 20, daysFromNow(90))
	existing := env.seedBatch(productID, storeB, "BN-SHARED", 5, daysFromNow(90))

	_, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeB, Quantity: 10,
	}, testUserID)
	require.NoError(t, err)

	merged, err := env.ledger.GetBatch(existing.ID)
	require.NoError(t, err)
	require.Equal(t, 15, merged.Quantity)

	// No new destination row was created.
	destBatches, err := env.ledger.AvailableBatches(productID, storeB)
	require.NoError(t, err)
	require.Len(t, destBatches, 1)
}

func TestTransfer_InsufficientStockWritesNothing(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 4, daysFromNow(90))

	_, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeB, Quantity: 10,
	}, testUserID)

	require.ErrorIs(t, err, ErrInsufficientStock)

	sourceAfter, err := env.ledger.GetBatch(batch.ID)
	require.NoError(t, err)
	require.Equal(t, 4, sourceAfter.Quantity)

	destTotal, err := env.ledger.ProductStock(productID, storeB)
	require.NoError(t, err)
	require.Zero(t, destTotal)
	require.Empty(t, env.store.transfers)
	require.Empty(t, env.store.audits)
}

func TestTransfer_SameStoreRejected(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-001", 10, daysFromNow(90))

	_, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeA, Quantity: 5,
	}, testUserID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestTransfer_UnknownProductRejected(t *testing.T) {
	env := newTestEnv()
	_, storeA, storeB := env.seedCatalog()

	_, err := env.transfers.Transfer(TransferInput{
		ProductID: 99999, FromStoreID: storeA, ToStoreID: storeB, Quantity: 5,
	}, testUserID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransfer_UnknownSourceStoreRejected(t *testing.T) {
	env := newTestEnv()
	productID, _, storeB := env.seedCatalog()

	_, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: 99999, ToStoreID: storeB, Quantity: 5,
	}, testUserID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTransfer_AuditPairPerBatch(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-001", 10, daysFromNow(90))

	_, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeB, Quantity: 7,
	}, testUserID)
	require.NoError(t, err)

	out := models.ChangeTypeTransferOut
	entries, total, err := env.ledger.GetAuditTrail(models.AuditFilters{ChangeType: &out})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, -7, entries[0].Delta())

	in := models.ChangeTypeTransferIn
	entries, total, err = env.ledger.GetAuditTrail(models.AuditFilters{ChangeType: &in})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, 7, entries[0].Delta())
}

func TestGetTransfersByReference(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-001", 5, daysFromNow(10))
	env.seedBatch(productID, storeA, "BN-002", 5, daysFromNow(20))

	result, err := env.transfers.Transfer(TransferInput{
		ProductID: productID, FromStoreID: storeA, ToStoreID: storeB, Quantity: 8,
	}, testUserID)
	require.NoError(t, err)

	transfers, err := env.transfers.GetTransfersByReference(result.Reference)
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	_, err = env.transfers.GetTransfersByReference("no-such-reference")
	require.ErrorIs(t, err, ErrNotFound)
}
