package api

import (
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// Client is a thin wrapper around the backend REST API, used by tooling and
// integration tests.
type Client struct {
	backend *resty.Client
}

func NewClient(baseUrl string) *Client {
	return &Client{
		backend: resty.New().SetBaseURL(baseUrl),
	}
}

func (c *Client) RunDiscovery(req DiscoveryRequest) (DiscoveryResponse, error) {
	res, err := c.backend.R().
		SetBody(req).
		SetResult(&DiscoveryResponse{}).
		Post("/api/v1/discovery")

	if err != nil {
		return DiscoveryResponse{}, fmt.Errorf("discovery request failed: %w", err)
	}

	if !res.IsSuccess() {
		return DiscoveryResponse{}, fmt.Errorf("discovery request returned status=%d body=%s", res.StatusCode(), res.String())
	}

	return *res.Result().(*DiscoveryResponse), nil
}

func (c *Client) ListRuns() ([]RunSummary, error) {
	var runs []RunSummary

	res, err := c.backend.R().
		SetResult(&runs).
		Get("/api/v1/discovery")

	if err != nil {
		return nil, fmt.Errorf("list runs request failed: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("list runs request returned status=%d body=%s", res.StatusCode(), res.String())
	}

	return runs, nil
}

func (c *Client) GetRun(id uuid.UUID) (DiscoveryResponse, error) {
	res, err := c.backend.R().
		SetResult(&DiscoveryResponse{}).
		Get(fmt.Sprintf("/api/v1/discovery/%s", id))

	if err != nil {
		return DiscoveryResponse{}, fmt.Errorf("get run request failed: %w", err)
	}

	if !res.IsSuccess() {
		return DiscoveryResponse{}, fmt.Errorf("get run request returned status=%d body=%s", res.StatusCode(), res.String())
	}

	return *res.Result().(*DiscoveryResponse), nil
}
