package services

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pharmapos_backend/internal/models"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateSale_HappyPath(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	sale, err := env.sales.CreateSale(CreateSaleInput{
		StoreID: storeA,
		Items: []SaleItemInput{
			{BatchID: batch.ID, Quantity: 3, UnitPrice: price("100.00")},
		},
		PaymentMethod: "cash",
		AmountPaid:    price("350.00"),
	}, testUserID)

	require.NoError(t, err)
	require.NotZero(t, sale.ID)
	require.True(t, sale.TotalAmount.Equal(price("300.00")))
	require.True(t, sale.ChangeAmount.Equal(price("50.00")))
	require.Len(t, sale.Items, 1)

	current, err := env.ledger.GetBatch(batch.ID)
	require.NoError(t, err)
	require.Equal(t, 47, current.Quantity)

	history, err := env.ledger.GetBatchHistory(batch.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ChangeTypeSale, history[0].ChangeType)
	require.Equal(t, -3, history[0].Delta())
	require.NotNil(t, history[0].ReferenceID)
	require.Equal(t, sale.ID, *history[0].ReferenceID)
}

func TestCreateSale_InsufficientPaymentWritesNothing(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID: storeA,
		Items: []SaleItemInput{
			{BatchID: batch.ID, Quantity: 3, UnitPrice: price("100.00")},
		},
		PaymentMethod: "cash",
		AmountPaid:    price("250.00"),
	}, testUserID)

	require.ErrorIs(t, err, ErrInsufficientPayment)
	require.Empty(t, env.store.sales)
	require.Empty(t, env.store.saleItems)
	require.Empty(t, env.store.audits)

	current, err := env.ledger.GetBatch(batch.ID)
	require.NoError(t, err)
	require.Equal(t, 50, current.Quantity)
}

func TestCreateSale_ShortLineRollsBackWholeSale(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	full := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))
	short := env.seedBatch(productID, storeA, "BN-002", 2, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID: storeA,
		Items: []SaleItemInput{
			{BatchID: full.ID, Quantity: 10, UnitPrice: price("10.00")},
			{BatchID: short.ID, Quantity: 5, UnitPrice: price("10.00")},
		},
		PaymentMethod: "cash",
		AmountPaid:    price("150.00"),
	}, testUserID)

	require.ErrorIs(t, err, ErrInsufficientStock)

	// First line was valid but nothing may survive.
	fullAfter, err := env.ledger.GetBatch(full.ID)
	require.NoError(t, err)
	require.Equal(t, 50, fullAfter.Quantity)

	require.Empty(t, env.store.sales)
	require.Empty(t, env.store.saleItems)
	require.Empty(t, env.store.audits)
}

func TestCreateSale_ReceiptNumberFormat(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	first, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}, testUserID)
	require.NoError(t, err)

	second, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}, testUserID)
	require.NoError(t, err)

	require.Regexp(t, `^RCP-\d+-\d{14}-\d{5}$`, first.ReceiptNumber)
	require.True(t, strings.HasSuffix(first.ReceiptNumber, "-00001"))
	require.True(t, strings.HasSuffix(second.ReceiptNumber, "-00002"))
	require.NotEqual(t, first.ReceiptNumber, second.ReceiptNumber)
}

func TestCreateSale_RepeatedIdempotencyKeyReturnsOriginal(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	input := CreateSaleInput{
		StoreID:        storeA,
		Items:          []SaleItemInput{{BatchID: batch.ID, Quantity: 3, UnitPrice: price("100.00")}},
		PaymentMethod:  "cash",
		AmountPaid:     price("300.00"),
		IdempotencyKey: "client-retry-7f3a",
	}

	first, err := env.sales.CreateSale(input, testUserID)
	require.NoError(t, err)

	// The retried request must not sell again.
	second, err := env.sales.CreateSale(input, testUserID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.ReceiptNumber, second.ReceiptNumber)
	require.Equal(t, "client-retry-7f3a", second.IdempotencyKey)

	current, err := env.ledger.GetBatch(batch.ID)
	require.NoError(t, err)
	require.Equal(t, 47, current.Quantity)

	history, err := env.ledger.GetBatchHistory(batch.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, env.store.sales, 1)
}

func TestCreateSale_GeneratesKeyWhenAbsent(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	input := CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}

	first, err := env.sales.CreateSale(input, testUserID)
	require.NoError(t, err)
	second, err := env.sales.CreateSale(input, testUserID)
	require.NoError(t, err)

	// Without a client key each submission is a distinct sale.
	require.NotEmpty(t, first.IdempotencyKey)
	require.NotEmpty(t, second.IdempotencyKey)
	require.NotEqual(t, first.IdempotencyKey, second.IdempotencyKey)
	require.NotEqual(t, first.ID, second.ID)
	require.Len(t, env.store.sales, 2)
}

func TestCreateSale_LocksStoreBeforeReceiptSequence(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}, testUserID)
	require.NoError(t, err)

	require.Equal(t, 1, env.catalogRepo.storeLocks[storeA])
}

func TestCreateSale_UnknownStoreRejected(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       99999,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}, testUserID)

	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, env.store.sales)
	require.Empty(t, env.store.audits)
}

func TestCreateSale_ValidationErrors(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         nil,
		PaymentMethod: "cash",
		AmountPaid:    price("10.00"),
	}, testUserID)
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "bitcoin",
		AmountPaid:    price("10.00"),
	}, testUserID)
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 0, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("10.00"),
	}, testUserID)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCreateSale_BatchFromOtherStoreRejected(t *testing.T) {
	env := newTestEnv()
	productID, storeA, storeB := env.seedCatalog()
	foreign := env.seedBatch(productID, storeB, "BN-001", 50, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: foreign.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}, testUserID)

	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, env.store.sales)
}

func TestGetSale_IncludesItems(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	created, err := env.sales.CreateSale(CreateSaleInput{
		StoreID: storeA,
		Items: []SaleItemInput{
			{BatchID: batch.ID, Quantity: 2, UnitPrice: price("25.50")},
		},
		PaymentMethod: "card",
		AmountPaid:    price("51.00"),
	}, testUserID)
	require.NoError(t, err)

	fetched, err := env.sales.GetSale(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ReceiptNumber, fetched.ReceiptNumber)
	require.Len(t, fetched.Items, 1)
	require.Equal(t, 2, fetched.Items[0].Quantity)

	_, err = env.sales.GetSale(99999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetSalesByDate(t *testing.T) {
	env := newTestEnv()
	productID, storeA, _ := env.seedCatalog()
	batch := env.seedBatch(productID, storeA, "BN-001", 50, daysFromNow(90))

	_, err := env.sales.CreateSale(CreateSaleInput{
		StoreID:       storeA,
		Items:         []SaleItemInput{{BatchID: batch.ID, Quantity: 1, UnitPrice: price("5.00")}},
		PaymentMethod: "cash",
		AmountPaid:    price("5.00"),
	}, testUserID)
	require.NoError(t, err)

	today, err := env.sales.GetSalesByDate(storeA, time.Now())
	require.NoError(t, err)
	require.Len(t, today, 1)

	yesterday, err := env.sales.GetSalesByDate(storeA, time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Empty(t, yesterday)
}
