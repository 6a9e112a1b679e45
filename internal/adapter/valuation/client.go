package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"tradecore/internal/domain/trade"
)

var ErrTimeout = errors.New("valuation service timed out")

type request struct {
	TradeID        string  `json:"tradeId"`
	Commodity      string  `json:"commodity"`
	InstrumentType string  `json:"instrumentType"`
	Side           string  `json:"side"`
	Currency       string  `json:"currency"`
	Quantity       float64 `json:"quantity"`
	Price          float64 `json:"price"`
}

// Client calls the external valuation service. Each attempt gets its own timeout.
// Transport errors and 5xx answers are retried once; a timeout is returned as is.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		timeout: timeout,
		log:     log,
	}
}

func (c *Client) Value(ctx context.Context, t *trade.Trade) (trade.Valuation, error) {
	body, err := json.Marshal(request{
		TradeID:        t.TradeID,
		Commodity:      t.Commodity,
		InstrumentType: t.InstrumentType,
		Side:           t.Side,
		Currency:       t.Currency,
		Quantity:       t.Quantity,
		Price:          t.Price,
	})
	if err != nil {
		return trade.Valuation{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(b, 1), ctx)

	var out trade.Valuation
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		v, err := c.call(ctx, body)
		if err != nil {
			c.log.Warn().Err(err).Str("trade_id", t.TradeID).Int("attempt", attempt).Msg("valuation call failed")
			return err
		}
		out = v
		return nil
	}, policy)
	return out, err
}

func (c *Client) call(ctx context.Context, body []byte) (trade.Valuation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/valuations", bytes.NewReader(body))
	if err != nil {
		return trade.Valuation{}, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return trade.Valuation{}, backoff.Permanent(fmt.Errorf("%w after %s", ErrTimeout, c.timeout))
		}
		return trade.Valuation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return trade.Valuation{}, fmt.Errorf("valuation service: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return trade.Valuation{}, backoff.Permanent(fmt.Errorf("valuation service: %s: %s", resp.Status, strings.TrimSpace(string(msg))))
	}

	var v trade.Valuation
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return trade.Valuation{}, backoff.Permanent(fmt.Errorf("decode valuation: %w", err))
	}
	return v, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
