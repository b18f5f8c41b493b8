package common

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type StatusError struct {
	Name   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("error code %d returned from %v", e.Status, e.Name)
	}
	return fmt.Sprintf("error code %d returned from %v: %s", e.Status, e.Name, e.Body)
}

type RequesterOption func(*Requester)

// Requester issues GET requests with retries and a circuit breaker per upstream.
type Requester struct {
	client        *http.Client
	retries       int
	backoffFactor time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func ClientOption(client *http.Client) RequesterOption {
	return func(r *Requester) {
		r.client = client
	}
}

func RetriesOption(retries int) RequesterOption {
	return func(r *Requester) {
		r.retries = retries
	}
}

func BackoffOption(factor time.Duration) RequesterOption {
	return func(r *Requester) {
		r.backoffFactor = factor
	}
}

func NewRequester(opts ...RequesterOption) *Requester {
	r := &Requester{
		client:        http.DefaultClient,
		retries:       5,
		backoffFactor: 200 * time.Millisecond,
		breakers:      make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.retries < 0 {
		r.retries = 0
	}
	return r
}

// GetWithRetry retries transport errors, 429 and 5xx responses up to retries
// times after the first attempt, with exponential backoff. Any other non-2xx
// status fails immediately.
func (r *Requester) GetWithRetry(req *http.Request, name string) (*http.Response, error) {
	cb := r.breaker(name)
	ctx := req.Context()

	attempts := r.retries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(r.backoff(attempt - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := cb.Execute(func() (interface{}, error) {
			resp, err := r.client.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, &StatusError{Name: name, Status: resp.StatusCode}
			}
			return resp, nil
		})
		if err == nil {
			resp := result.(*http.Response)
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				defer resp.Body.Close()
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return nil, &StatusError{Name: name, Status: resp.StatusCode, Body: string(body)}
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w for %v: %v", ErrCircuitOpen, name, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("error on %v api request after %d attempts: %w", name, attempts, lastErr)
}

func (r *Requester) backoff(retry int) time.Duration {
	return time.Duration(float64(r.backoffFactor) * math.Pow(2, float64(retry-1)))
}

func (r *Requester) breaker(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	cb, ok := r.breakers[name]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     name,
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32((r.retries+1)*2)
			},
		})
		r.breakers[name] = cb
	}
	return cb
}
