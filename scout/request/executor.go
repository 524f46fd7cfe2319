package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrNotFound indicates a 404 response; the resource does not exist and
	// retrying will not change the outcome.
	ErrNotFound = errors.New("resource not found")

	// ErrRequestFailed indicates all attempts were exhausted. Callers must
	// treat this as "no results for this call", not as a fatal error.
	ErrRequestFailed = errors.New("request failed after all attempts")
)

// Policy controls the attempt loop. It is immutable once the executor is
// constructed.
type Policy struct {
	MaxAttempts       int
	RetryAfterDefault time.Duration
	ForbiddenDelay    time.Duration
	NetworkRetryDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       5,
		RetryAfterDefault: 60 * time.Second,
		ForbiddenDelay:    5 * time.Second,
		NetworkRetryDelay: 2 * time.Second,
	}
}

// Executor issues GET requests with bounded retries, exponential backoff with
// jitter, and status-code specific handling. The shared public APIs this talks
// to rate limit aggressively, so every wait is deliberate and logged.
type Executor struct {
	client *resty.Client
	policy Policy
	logger *slog.Logger

	// Overridable in tests to avoid real delays.
	Sleep  func(time.Duration)
	Jitter func() float64
}

// NewExecutor wraps a resty client in the retrying attempt loop. The client's
// own retry mechanism should be disabled (resty's default); the loop here owns
// the policy.
func NewExecutor(client *resty.Client, policy Policy) *Executor {
	return &Executor{
		client: client,
		policy: policy,
		logger: slog.Default(),
		Sleep:  time.Sleep,
		Jitter: rand.Float64,
	}
}

// GetJson executes a GET against url and unmarshals a 200 response body into
// dest. A 404 returns ErrNotFound immediately. Rate limit (429) waits honor
// the Retry-After header and do not consume an attempt. All other failures
// consume attempts until the policy is exhausted, which returns
// ErrRequestFailed.
func (e *Executor) GetJson(url string, dest any) error {
	rateLimited := false

	for attempt := 0; attempt < e.policy.MaxAttempts; {
		if attempt > 0 && !rateLimited {
			delay := e.backoffDelay(attempt)
			e.logger.Info("waiting before retry", "delay_seconds", delay.Seconds(), "attempt", attempt+1, "url", url)
			e.Sleep(delay)
		}
		rateLimited = false

		res, err := e.client.R().Get(url)
		if err != nil {
			attempt++
			if attempt == e.policy.MaxAttempts {
				e.logger.Error("all retry attempts failed", "url", url, "error", err)
				return ErrRequestFailed
			}
			e.logger.Error("network error, retrying", "attempt", attempt, "url", url, "error", err)
			e.Sleep(e.policy.NetworkRetryDelay)
			continue
		}

		switch res.StatusCode() {
		case http.StatusOK:
			if err := json.Unmarshal(res.Body(), dest); err != nil {
				e.logger.Error("error parsing response body", "url", url, "error", err)
				return fmt.Errorf("error parsing response from %s: %w", url, err)
			}
			return nil

		case http.StatusTooManyRequests:
			wait := e.retryAfter(res)
			e.logger.Warn("rate limited", "wait_seconds", wait.Seconds(), "url", url)
			e.Sleep(wait)
			rateLimited = true // the same attempt is retried, no backoff on resume

		case http.StatusForbidden:
			e.logger.Warn("403 forbidden, possibly rate limit or missing contact header", "url", url, "body", snippet(res.String()))
			e.Sleep(e.policy.ForbiddenDelay)
			attempt++

		case http.StatusNotFound:
			e.logger.Warn("404 not found", "url", url)
			return ErrNotFound

		default:
			e.logger.Error("unexpected response status", "status_code", res.StatusCode(), "body", snippet(res.String()), "url", url)
			attempt++
		}
	}

	return ErrRequestFailed
}

// backoffDelay returns a delay in [2^attempt, 2^attempt + 1) seconds.
func (e *Executor) backoffDelay(attempt int) time.Duration {
	seconds := math.Pow(2, float64(attempt)) + e.Jitter()
	return time.Duration(seconds * float64(time.Second))
}

func (e *Executor) retryAfter(res *resty.Response) time.Duration {
	header := res.Header().Get("Retry-After")
	if header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return e.policy.RetryAfterDefault
}

func snippet(body string) string {
	const maxLen = 200
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}
