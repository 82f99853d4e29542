package ton

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

// RateSource supplies the TON/RUB rate used to quote subscription payments.
type RateSource interface {
	TONRUB(ctx context.Context) (float64, error)
}

// WalletClient quotes payments against the service wallet and confirms them
// by scanning the wallet's recent incoming transfers.
type WalletClient struct {
	walletAddress string
	addressTTL    time.Duration
	rates         RateSource
	verifier      *Verifier
}

func NewWalletClient(walletAddress string, addressTTL time.Duration, rates RateSource, verifier *Verifier) *WalletClient {
	return &WalletClient{
		walletAddress: walletAddress,
		addressTTL:    addressTTL,
		rates:         rates,
		verifier:      verifier,
	}
}

func (c *WalletClient) Quote(ctx context.Context, amountRUB float64) (*Quote, error) {
	if c.walletAddress == "" {
		return nil, errors.New("wallet address is not configured")
	}

	tonRUB, err := c.rates.TONRUB(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get TON rate: %w", err)
	}

	return &Quote{
		AmountTON: amountRUB / tonRUB,
		Address:   c.walletAddress,
		ExpiresAt: time.Now().Add(c.addressTTL),
	}, nil
}

func (c *WalletClient) Status(ctx context.Context, addr string, amountTON float64) (model.PaymentStatus, error) {
	minAmountNano := int64(amountTON * 1e9)

	_, err := c.verifier.FindIncomingTransfer(ctx, addr, minAmountNano, c.addressTTL)
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return model.PaymentStatusPending, nil
		}
		return model.PaymentStatusPending, err
	}

	return model.PaymentStatusCompleted, nil
}
