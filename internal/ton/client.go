package ton

import (
	"context"
	"time"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

// Quote is a payment request: how much TON to send where, and until when
// the address is considered valid.
type Quote struct {
	AmountTON float64
	Address   string
	ExpiresAt time.Time
}

// Client is the payment capability the dialogue router and the payment
// worker depend on. The stub below serves tests and development; the
// lite-client backed WalletClient is the production implementation.
type Client interface {
	Quote(ctx context.Context, amountRUB float64) (*Quote, error)
	Status(ctx context.Context, address string, amountTON float64) (model.PaymentStatus, error)
}

// StubClient returns a fixed destination address and a fixed status. Rate
// constants mirror the manual quote used before real rates were wired in.
type StubClient struct {
	Address     string
	StatusValue model.PaymentStatus
	TONPriceUSD float64
	USDRUB      float64
	AddressTTL  time.Duration
}

func NewStubClient() *StubClient {
	return &StubClient{
		Address:     "EQDmkj65Ab_m0aZaW8IpKw4kYqIgITw_HRstYEkVQ6NIYCyW",
		StatusValue: model.PaymentStatusPending,
		TONPriceUSD: 2.5,
		USDRUB:      90,
		AddressTTL:  24 * time.Hour,
	}
}

func (c *StubClient) Quote(_ context.Context, amountRUB float64) (*Quote, error) {
	amountTON := (amountRUB / c.USDRUB) / c.TONPriceUSD
	return &Quote{
		AmountTON: amountTON,
		Address:   c.Address,
		ExpiresAt: time.Now().Add(c.AddressTTL),
	}, nil
}

func (c *StubClient) Status(_ context.Context, _ string, _ float64) (model.PaymentStatus, error) {
	return c.StatusValue, nil
}
