package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_GetReturnsIdleByDefault(t *testing.T) {
	store := NewMemoryStore()

	data := store.Get(42)
	assert.Equal(t, StageIdle, data.Stage)
	assert.Empty(t, data.PaymentAddress)
}

func TestMemoryStore_SetGetClear(t *testing.T) {
	store := NewMemoryStore()

	store.Set(42, Data{
		Stage:          StageAwaitingPayment,
		FirstName:      "Иван",
		LastName:       "Иванов",
		PaymentAddress: "EQDtest",
		AmountTON:      13.2,
	})

	data := store.Get(42)
	assert.Equal(t, StageAwaitingPayment, data.Stage)
	assert.Equal(t, "Иван", data.FirstName)
	assert.Equal(t, "EQDtest", data.PaymentAddress)
	assert.InDelta(t, 13.2, data.AmountTON, 1e-9)

	// Other conversations are unaffected.
	assert.Equal(t, StageIdle, store.Get(43).Stage)

	store.Clear(42)
	assert.Equal(t, StageIdle, store.Get(42).Stage)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			store.Set(id, Data{Stage: StageAwaitingName})
			_ = store.Get(id)
			store.Clear(id)
		}(int64(i))
	}
	wg.Wait()
}
