package positionstack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/evanhutnik/trailweather/internal/common"
	t "github.com/evanhutnik/trailweather/internal/types"
)

const DefaultBaseUrl = "http://api.positionstack.com/v1"

type ClientOption func(*Client)

func ApiKeyOption(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func RequesterOption(r *common.Requester) ClientOption {
	return func(c *Client) {
		c.requester = r
	}
}

type Client struct {
	apiKey    string
	baseUrl   string
	requester *common.Requester
}

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		panic("Missing apikey in positionStack client")
	}
	if c.baseUrl == "" {
		panic("Missing baseUrl in positionStack client")
	}
	if c.requester == nil {
		c.requester = common.NewRequester(common.RetriesOption(3))
	}
	return c
}

// GeoCode resolves a free-form place name. It returns nil when nothing matches.
func (c *Client) GeoCode(ctx context.Context, location string) (*t.Coordinates, error) {
	var respObj ForwardResponse
	if err := c.get(ctx, "forward", location, &respObj); err != nil {
		return nil, err
	}
	if len(respObj.Data) == 0 || respObj.Data[0] == nil {
		return nil, nil
	}
	return &t.Coordinates{
		Latitude:  respObj.Data[0].Latitude,
		Longitude: respObj.Data[0].Longitude,
	}, nil
}

// ReverseGeoCode returns nil when the coordinate has no known place.
func (c *Client) ReverseGeoCode(ctx context.Context, coords t.Coordinates) (*t.Location, error) {
	var respObj ReverseResponse
	query := fmt.Sprintf("%v,%v", coords.Latitude, coords.Longitude)
	if err := c.get(ctx, "reverse", query, &respObj); err != nil {
		return nil, err
	}
	if len(respObj.Data) == 0 || respObj.Data[0] == nil {
		return nil, nil
	}

	label := respObj.Data[0].Label
	if label == "" {
		label = respObj.Data[0].Name
	}
	return &t.Location{
		Label:    label,
		Locality: respObj.Data[0].Locality,
		Region:   respObj.Data[0].Region,
		Country:  respObj.Data[0].Country,
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint, query string, dst interface{}) error {
	req, err := url.Parse(fmt.Sprintf("%v/%v", c.baseUrl, endpoint))
	if err != nil {
		return fmt.Errorf("failed to parse positionstack baseUrl %s: %w", c.baseUrl, err)
	}

	q := req.Query()
	q.Add("access_key", c.apiKey)
	q.Add("query", query)
	q.Add("limit", "1")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return fmt.Errorf("building positionstack request: %w", err)
	}
	resp, err := c.requester.GetWithRetry(ctxReq, "positionstack")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading positionstack response body: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("error unmarshalling response from positionstack: %w", err)
	}
	return nil
}
