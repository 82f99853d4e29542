package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

// CreatePaymentTransactionTx appends an audit row next to the authoritative
// payments write, on the same transaction.
func (r *Repository) CreatePaymentTransactionTx(ctx context.Context, tx *sqlx.Tx, pt *model.PaymentTransaction) error {
	query := `
		INSERT INTO payment_transactions (user_id, amount_rub, amount_ton, transaction_hash, status, type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return tx.QueryRowContext(ctx, query,
		pt.UserID,
		pt.AmountRUB,
		pt.AmountTON,
		pt.TransactionHash,
		pt.Status,
		pt.Type,
	).Scan(&pt.ID, &pt.CreatedAt)
}

func (r *Repository) GetUserPaymentTransactions(ctx context.Context, userID int64) ([]model.PaymentTransaction, error) {
	var txs []model.PaymentTransaction
	query := "SELECT * FROM payment_transactions WHERE user_id = $1 ORDER BY created_at DESC"
	err := r.db.SelectContext(ctx, &txs, query, userID)
	return txs, err
}
