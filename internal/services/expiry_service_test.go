package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pharmapos_backend/internal/models"
)

func TestExpireWithinDays_ZeroesExpiringBatches(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	expiring := env.seedBatch(productID, storeA, "BN-EXPIRING", 15, daysFromNow(5))
	healthy := env.seedBatch(productID, storeA, "BN-HEALTHY", 40, daysFromNow(120))

	count, err := env.expiry.ExpireWithinDays(storeA, 30, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	expiredAfter, err := env.ledger.GetBatch(expiring.ID)
	require.NoError(t, err)
	require.Equal(t, 0, expiredAfter.Quantity)

	healthyAfter, err := env.ledger.GetBatch(healthy.ID)
	require.NoError(t, err)
	require.Equal(t, 40, healthyAfter.Quantity)

	history, err := env.ledger.GetBatchHistory(expiring.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ChangeTypeExpired, history[0].ChangeType)
	require.Equal(t, -15, history[0].Delta())
}

func TestExpireWithinDays_SecondRunIsNoop(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-001", 15, daysFromNow(5))
	env.seedBatch(productID, storeA, "BN-002", 8, daysFromNow(10))

	first, err := env.expiry.ExpireWithinDays(storeA, 30, testUserID)
	require.NoError(t, err)
	require.Equal(t, 2, first)

	second, err := env.expiry.ExpireWithinDays(storeA, 30, testUserID)
	require.NoError(t, err)
	require.Zero(t, second)

	// No extra audit entries on the second pass.
	kind := models.ChangeTypeExpired
	_, total, err := env.ledger.GetAuditTrail(models.AuditFilters{ChangeType: &kind})
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestExpireWithinDays_AlreadyExpiredStockIncluded(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-PAST", 5, daysFromNow(-10))

	count, err := env.expiry.ExpireWithinDays(storeA, 0, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestExpireWithinDays_RejectsNegativeHorizon(t *testing.T) {
	env := newTestEnv()
	_, storeA, _ := env.seedCatalog()

	_, err := env.expiry.ExpireWithinDays(storeA, -1, testUserID)
	require.ErrorIs(t, err, ErrValidation)
}

func TestExpireAllStores_SweepsEveryStore(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	env.seedBatch(productID, storeA, "BN-A", 5, daysFromNow(3))
	env.seedBatch(productID, storeB, "BN-B1", 5, daysFromNow(3))
	env.seedBatch(productID, storeB, "BN-B2", 5, daysFromNow(7))

	counts, err := env.expiry.ExpireAllStores(10, testUserID)
	require.NoError(t, err)
	require.Equal(t, 1, counts[storeA])
	require.Equal(t, 2, counts[storeB])

	totalA, err := env.ledger.ProductStock(productID, storeA)
	require.NoError(t, err)
	require.Zero(t, totalA)
	totalB, err := env.ledger.ProductStock(productID, storeB)
	require.NoError(t, err)
	require.Zero(t, totalB)
}
