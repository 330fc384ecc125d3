package shipping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// RajaOngkirClient implements Client against the RajaOngkir domestic API.
type RajaOngkirClient struct {
	apiKey  string
	baseURL string
	// originID is the shop's own subdistrict, the origin of every shipment.
	originID string
	http     *http.Client
}

// NewRajaOngkirClient creates a RajaOngkirClient.
func NewRajaOngkirClient(baseURL, apiKey, originID string) *RajaOngkirClient {
	return &RajaOngkirClient{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		originID: originID,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

var _ Client = (*RajaOngkirClient)(nil)

// SearchDestinations looks up domestic destinations matching the query.
func (c *RajaOngkirClient) SearchDestinations(ctx context.Context, query string, limit int) ([]Destination, error) {
	if limit <= 0 {
		limit = 10
	}

	endpoint := fmt.Sprintf("%s/destination/domestic-destination?search=%s&limit=%d&offset=0",
		c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "search destinations")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var result struct {
		Data []Destination `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	return result.Data, nil
}

// CalculateCost quotes rates from the shop's origin to the destination.
func (c *RajaOngkirClient) CalculateCost(ctx context.Context, destinationID string, weightGrams int, courier string) ([]Rate, error) {
	form := url.Values{}
	form.Set("origin", c.originID)
	form.Set("destination", destinationID)
	form.Set("weight", strconv.Itoa(weightGrams))
	form.Set("courier", strings.ToLower(courier))

	endpoint := c.baseURL + "/calculate/domestic-cost"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("key", c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "calculate cost")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}

	var result struct {
		Data []struct {
			Code  string `json:"code"`
			Name  string `json:"name"`
			Costs []struct {
				Service     string `json:"service"`
				Description string `json:"description"`
				Cost        int64  `json:"cost"`
				ETD         string `json:"etd"`
			} `json:"costs"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}

	var rates []Rate
	for _, courierCosts := range result.Data {
		for _, cost := range courierCosts.Costs {
			rates = append(rates, Rate{
				Courier:     courierCosts.Code,
				Service:     cost.Service,
				Description: cost.Description,
				Cost:        cost.Cost,
				ETD:         cost.ETD,
			})
		}
	}
	return rates, nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.Errorf("rajaongkir: %s: %s", resp.Status, body)
}
