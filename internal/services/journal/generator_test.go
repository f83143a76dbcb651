package journal

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cash-application-backend/internal/config"
	"cash-application-backend/internal/models"
)

func testJournalConfig() config.Journal {
	return config.Journal{
		CompanyCode:     "1000",
		DocumentType:    "SA",
		GLAccount:       "100000",
		DefaultCurrency: "EUR",
		Tolerance:       "0.01",
	}
}

func bikeTeamFixture() (*models.BankTransaction, *models.Match, *models.RemittanceAdvice) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tx := &models.BankTransaction{
		ID:                uuid.New(),
		BookingDate:       day,
		Amount:            decimal.RequireFromString("-38935.25"),
		Currency:          "EUR",
		PayerName:         "Bike Team GmbH",
		CustomerReference: "10003839",
	}
	adv := &models.RemittanceAdvice{
		ID:             uuid.New(),
		DocumentNumber: "10003839",
		SenderName:     "Bike Team GmbH",
		DocumentDate:   day,
		TotalNetAmount: decimal.RequireFromString("38935.25"),
		Currency:       "EUR",
	}
	amounts := []string{"5000.00", "5000.00", "5000.00", "5000.00", "5000.00", "5000.00", "8935.25"}
	for i, a := range amounts {
		adv.LineItems = append(adv.LineItems, models.RemittanceLineItem{
			ID:               uuid.New(),
			RemittanceID:     adv.ID,
			Position:         i + 1,
			InvoiceNumber:    "970003839",
			ReferenceCode:    "38000383",
			NetPaymentAmount: decimal.RequireFromString(a),
		})
	}
	m := &models.Match{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		RemittanceID:  adv.ID,
		Status:        models.StatusAutoMatched,
		MatchType:     models.MatchAutoExact,
	}
	return tx, m, adv
}

func TestBuildMatchedWithLineItems(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()

	entries, err := g.Build(tx, m, adv)
	require.NoError(t, err)
	require.Len(t, entries, 7)

	sum := decimal.Zero
	for i, e := range entries {
		assert.Equal(t, i+1, e.LineNumber, "line numbers follow line item order")
		assert.True(t, e.Debit.IsZero(), "outgoing payment must not debit")
		assert.False(t, e.Credit.IsZero())
		assert.Equal(t, "970003839/38000383", e.ItemText)
		assert.Equal(t, "1000", e.CompanyCode)
		assert.Equal(t, "SA", e.DocumentType)
		assert.Equal(t, "100000", e.GLAccount)
		assert.Equal(t, "EUR", e.Currency)
		assert.True(t, e.PostingDate.Equal(tx.BookingDate))
		assert.True(t, e.DocumentDate.Equal(tx.BookingDate))
		sum = sum.Add(e.Credit)
	}
	assert.True(t, sum.Equal(decimal.RequireFromString("38935.25")),
		"credits must conserve the transaction amount, got %s", sum)
}

func TestBuildIncomingPaymentDebits(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()
	tx.Amount = tx.Amount.Neg()

	entries, err := g.Build(tx, m, adv)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, e.Debit.IsZero())
		assert.True(t, e.Credit.IsZero())
	}
}

func TestBuildUnbalancedMatchRefused(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()
	adv.LineItems[6].NetPaymentAmount = decimal.RequireFromString("8900.00")

	entries, err := g.Build(tx, m, adv)
	assert.Nil(t, entries, "no entries may be posted against an unbalanced match")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnbalanced)

	var ub *UnbalancedError
	require.True(t, errors.As(err, &ub))
	assert.True(t, ub.Shortfall().Equal(decimal.RequireFromString("35.25")))
}

func TestBuildCreditNoteLineItem(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()
	// An invoice plus a credit note netting to the transaction amount.
	adv.LineItems = adv.LineItems[:2]
	adv.LineItems[0].NetPaymentAmount = decimal.RequireFromString("40035.25")
	adv.LineItems[1].NetPaymentAmount = decimal.RequireFromString("-1100.00")

	entries, err := g.Build(tx, m, adv)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].Credit.Equal(decimal.RequireFromString("40035.25")))
	assert.True(t, entries[0].Debit.IsZero())
	// The credit note posts on the opposite side of the payment.
	assert.True(t, entries[1].Debit.Equal(decimal.RequireFromString("1100.00")))
	assert.True(t, entries[1].Credit.IsZero())

	posted := decimal.Zero
	for _, e := range entries {
		posted = posted.Add(e.Credit).Sub(e.Debit)
	}
	assert.True(t, posted.Equal(tx.Amount.Abs()),
		"posted net must conserve the transaction amount, got %s", posted)
}

func TestBuildZeroAmountTransactionPostsNothing(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()
	tx.Amount = decimal.Zero

	entries, err := g.Build(tx, m, adv)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = g.Build(tx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildWithinTolerance(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()
	// One cent off is inside the conservation tolerance.
	adv.LineItems[6].NetPaymentAmount = decimal.RequireFromString("8935.24")

	entries, err := g.Build(tx, m, adv)
	require.NoError(t, err)
	assert.Len(t, entries, 7)
}

func TestBuildMatchedWithoutLineItems(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()
	adv.LineItems = nil

	entries, err := g.Build(tx, m, adv)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "10003839", entries[0].ItemText)
	assert.True(t, entries[0].Credit.Equal(decimal.RequireFromString("38935.25")))
	assert.Equal(t, 1, entries[0].LineNumber)
}

func TestBuildUnmatchedTransaction(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, _, _ := bikeTeamFixture()

	entries, err := g.Build(tx, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, tx.CustomerReference, entries[0].ItemText)
	assert.True(t, entries[0].Credit.Equal(decimal.RequireFromString("38935.25")))
	assert.Nil(t, entries[0].MatchID)
}

func TestBuildExactlyOneSidePopulated(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, m, adv := bikeTeamFixture()

	for _, amount := range []string{"-38935.25", "38935.25"} {
		tx.Amount = decimal.RequireFromString(amount)
		entries, err := g.Build(tx, m, adv)
		require.NoError(t, err)
		for _, e := range entries {
			assert.True(t, e.Debit.IsZero() != e.Credit.IsZero(),
				"exactly one of debit/credit must be set, got debit=%s credit=%s", e.Debit, e.Credit)
		}
	}
}

func TestBuildFallsBackToDefaultCurrency(t *testing.T) {
	g := NewGenerator(testJournalConfig())
	tx, _, _ := bikeTeamFixture()
	tx.Currency = ""

	entries, err := g.Build(tx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "EUR", entries[0].Currency)
}
