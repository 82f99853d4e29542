package ton

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The bot dispatcher and the payment worker share one Verifier, so the first
// connect can be triggered from both goroutines at once. Run with -race.
func TestVerifier_ConcurrentConnectIsSafe(t *testing.T) {
	verifier := NewVerifier(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = verifier.FindIncomingTransfer(ctx, "EQDmkj65Ab_m0aZaW8IpKw4kYqIgITw_HRstYEkVQ6NIYCyW", 1, 0)
		}(i)
	}
	wg.Wait()

	// The cancelled context stops every attempt at the network boundary;
	// none of them may observe a half-initialized client.
	for _, err := range errs {
		assert.Error(t, err)
	}
	assert.Nil(t, verifier.client)
}
