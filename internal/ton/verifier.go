package ton

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/liteclient"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// amountToleranceNano absorbs wallet fee rounding: 0.001 TON.
const amountToleranceNano = 1_000_000

// Verifier checks incoming transfers against the TON network through the
// public lite servers.
type Verifier struct {
	testnet bool

	// mu guards the lazy client init: the bot dispatcher and the payment
	// worker share one Verifier and may both trigger the first connect.
	mu     sync.Mutex
	client ton.APIClientWrapped
}

func NewVerifier(testnet bool) *Verifier {
	return &Verifier{testnet: testnet}
}

// TransactionInfo describes a confirmed incoming transfer.
type TransactionInfo struct {
	Hash        string
	FromAddress string
	ToAddress   string
	AmountNano  uint64
	Comment     string
	Timestamp   uint32
}

func (v *Verifier) connect(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.client != nil {
		return nil
	}

	pool := liteclient.NewConnectionPool()

	configURL := "https://ton.org/global.config.json"
	if v.testnet {
		configURL = "https://ton.org/testnet-global.config.json"
	}

	if err := pool.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
		return fmt.Errorf("failed to connect to TON network: %w", err)
	}

	v.client = ton.NewAPIClient(pool).WithRetry()
	return nil
}

// FindIncomingTransfer looks for a recent transfer to addr of at least
// minAmountNano that is no older than maxAge. Returns
// ErrTransactionNotFound when nothing matches yet.
func (v *Verifier) FindIncomingTransfer(ctx context.Context, addrStr string, minAmountNano int64, maxAge time.Duration) (*TransactionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := v.connect(ctx); err != nil {
		return nil, err
	}

	addr, err := address.ParseAddr(addrStr)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet address: %w", err)
	}

	txs, err := v.recentTransactions(ctx, addr, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	now := uint32(time.Now().Unix())
	maxAgeSec := uint32(maxAge / time.Second)

	for _, tx := range txs {
		if now-tx.Timestamp > maxAgeSec {
			continue
		}
		if int64(tx.AmountNano) < minAmountNano-amountToleranceNano {
			continue
		}
		log.Printf("[TON] Matched transfer hash=%s amount=%d from=%s", tx.Hash, tx.AmountNano, tx.FromAddress)
		return &tx, nil
	}

	return nil, ErrTransactionNotFound
}

func (v *Verifier) recentTransactions(ctx context.Context, addr *address.Address, limit int) ([]TransactionInfo, error) {
	master, err := v.client.CurrentMasterchainInfo(ctx)
	if err != nil {
		return nil, err
	}

	account, err := v.client.GetAccount(ctx, master, addr)
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, nil
	}

	txs, err := v.client.ListTransactions(ctx, addr, uint32(limit), account.LastTxLT, account.LastTxHash)
	if err != nil {
		return nil, err
	}

	var result []TransactionInfo
	for _, tx := range txs {
		if tx.IO.In == nil {
			continue
		}
		info, ok := tryParseInternalMessage(tx, addr)
		if !ok {
			continue
		}
		result = append(result, info)
	}

	return result, nil
}

// tryParseInternalMessage parses an incoming internal message; AsInternal
// panics on external messages, so those are filtered here.
func tryParseInternalMessage(tx *tlb.Transaction, addr *address.Address) (info TransactionInfo, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	inMsg := tx.IO.In.AsInternal()
	if inMsg == nil {
		return TransactionInfo{}, false
	}

	comment := ""
	if inMsg.Body != nil {
		comment = extractComment(inMsg.Body)
	}

	fromAddr := ""
	if inMsg.SrcAddr != nil {
		fromAddr = inMsg.SrcAddr.String()
	}

	return TransactionInfo{
		Hash:        base64.StdEncoding.EncodeToString(tx.Hash),
		FromAddress: fromAddr,
		ToAddress:   addr.String(),
		AmountNano:  inMsg.Amount.Nano().Uint64(),
		Comment:     comment,
		Timestamp:   tx.Now,
	}, true
}

// extractComment pulls a plain-text comment (op = 0) out of a message body.
func extractComment(body *cell.Cell) string {
	slice := body.BeginParse()

	op, err := slice.LoadUInt(32)
	if err != nil || op != 0 {
		return ""
	}

	data, err := slice.LoadBinarySnake()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
