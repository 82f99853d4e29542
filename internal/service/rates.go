package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

type ExchangeRates struct {
	TONUSD float64 `json:"ton_usd"`
	USDRUB float64 `json:"usd_rub"`
	TONRUB float64 `json:"ton_rub"`
}

// RatesService caches the TON exchange rate used to quote the monthly
// subscription price in crypto.
type RatesService struct {
	httpClient *http.Client

	cacheMu   sync.RWMutex
	cache     *ExchangeRates
	cacheTime time.Time
	cacheTTL  time.Duration
}

func NewRatesService() *RatesService {
	return &RatesService{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cacheTTL:   5 * time.Minute,
	}
}

func (s *RatesService) GetRates(ctx context.Context) (*ExchangeRates, error) {
	s.cacheMu.RLock()
	if s.cache != nil && time.Since(s.cacheTime) < s.cacheTTL {
		rates := *s.cache
		s.cacheMu.RUnlock()
		return &rates, nil
	}
	s.cacheMu.RUnlock()

	rates, err := s.fetchRates(ctx)
	if err != nil {
		// Serve stale cache over an error.
		s.cacheMu.RLock()
		defer s.cacheMu.RUnlock()
		if s.cache != nil {
			cached := *s.cache
			return &cached, nil
		}
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache = rates
	s.cacheTime = time.Now()
	s.cacheMu.Unlock()

	return rates, nil
}

// TONRUB implements ton.RateSource.
func (s *RatesService) TONRUB(ctx context.Context) (float64, error) {
	rates, err := s.GetRates(ctx)
	if err != nil {
		return 0, err
	}
	return rates.TONRUB, nil
}

func (s *RatesService) fetchRates(ctx context.Context) (*ExchangeRates, error) {
	rates := &ExchangeRates{}

	tonUSD, err := s.fetchTONRate(ctx)
	if err != nil {
		tonUSD = 2.5
	}
	rates.TONUSD = tonUSD

	usdRUB, err := s.fetchRUBRate(ctx)
	if err != nil {
		usdRUB = 90.0
	}
	rates.USDRUB = usdRUB

	rates.TONRUB = rates.TONUSD * rates.USDRUB

	return rates, nil
}

func (s *RatesService) fetchTONRate(ctx context.Context) (float64, error) {
	var result struct {
		TON struct {
			USD float64 `json:"usd"`
		} `json:"the-open-network"`
	}

	err := s.getJSON(ctx, "https://api.coingecko.com/api/v3/simple/price?ids=the-open-network&vs_currencies=usd", &result)
	if err != nil {
		return 0, err
	}

	if result.TON.USD == 0 {
		return 0, fmt.Errorf("invalid TON rate")
	}
	return result.TON.USD, nil
}

func (s *RatesService) fetchRUBRate(ctx context.Context) (float64, error) {
	var result struct {
		Rates struct {
			RUB float64 `json:"RUB"`
		} `json:"rates"`
	}

	err := s.getJSON(ctx, "https://api.exchangerate.host/latest?base=USD&symbols=RUB", &result)
	if err != nil || result.Rates.RUB == 0 {
		return s.fetchRUBRateFallback(ctx)
	}
	return result.Rates.RUB, nil
}

func (s *RatesService) fetchRUBRateFallback(ctx context.Context) (float64, error) {
	var result struct {
		Valute struct {
			USD struct {
				Value float64 `json:"Value"`
			} `json:"USD"`
		} `json:"Valute"`
	}

	err := s.getJSON(ctx, "https://www.cbr-xml-daily.ru/daily_json.js", &result)
	if err != nil {
		return 0, err
	}

	if result.Valute.USD.Value == 0 {
		return 0, fmt.Errorf("invalid RUB rate")
	}
	return result.Valute.USD.Value, nil
}

func (s *RatesService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
