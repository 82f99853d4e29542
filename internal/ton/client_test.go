package ton

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

func TestStubClient_Quote(t *testing.T) {
	client := NewStubClient()

	quote, err := client.Quote(context.Background(), 3000)
	require.NoError(t, err)

	// 3000 RUB / 90 RUB-per-USD / 2.5 USD-per-TON.
	assert.InDelta(t, 13.333333, quote.AmountTON, 1e-4)
	assert.NotEmpty(t, quote.Address)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), quote.ExpiresAt, time.Minute)
}

func TestStubClient_StatusDefaultsToPending(t *testing.T) {
	client := NewStubClient()

	status, err := client.Status(context.Background(), client.Address, 13.33)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, status)
}

func TestStubClient_StatusConfigurable(t *testing.T) {
	client := NewStubClient()
	client.StatusValue = model.PaymentStatusCompleted

	status, err := client.Status(context.Background(), client.Address, 13.33)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, status)
}

type fixedRates struct{ tonRUB float64 }

func (f fixedRates) TONRUB(context.Context) (float64, error) { return f.tonRUB, nil }

func TestWalletClient_Quote(t *testing.T) {
	client := NewWalletClient("EQDmkj65Ab_m0aZaW8IpKw4kYqIgITw_HRstYEkVQ6NIYCyW", 24*time.Hour, fixedRates{tonRUB: 225}, nil)

	quote, err := client.Quote(context.Background(), 3000)
	require.NoError(t, err)

	assert.InDelta(t, 3000.0/225.0, quote.AmountTON, 1e-9)
	assert.Equal(t, "EQDmkj65Ab_m0aZaW8IpKw4kYqIgITw_HRstYEkVQ6NIYCyW", quote.Address)
}

func TestWalletClient_QuoteRequiresAddress(t *testing.T) {
	client := NewWalletClient("", 24*time.Hour, fixedRates{tonRUB: 225}, nil)

	_, err := client.Quote(context.Background(), 3000)
	assert.Error(t, err)
}
