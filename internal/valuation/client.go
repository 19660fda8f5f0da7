package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// PropertyInfo is the flattened valuation record for one real property
type PropertyInfo struct {
	TaxID                     string  `json:"tax_id"`
	Address                   string  `json:"address"`
	County                    string  `json:"county"`
	OccupiedBy                string  `json:"occupied_by"`
	LastSaleDate              string  `json:"last_sale_date"`
	LastSaleAmount            int     `json:"last_sale_amount"`
	AssessedValue             int     `json:"assessed_value"`
	CountyMarketValue         int     `json:"county_market_value"`
	TaxYear                   string  `json:"tax_year"`
	TaxAmount                 float64 `json:"tax_amount"`
	Owners                    string  `json:"owners"`
	ApproximateValueMidpoint  int     `json:"approximate_value_midpoint"`
	ApproximateValueHigh      int     `json:"approximate_value_high"`
	ApproximateValueLow       int     `json:"approximate_value_low"`
	EquityAmount              int     `json:"equity_amount"`
}

// Client calls the property valuation API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetPropertyDetails fetches description and valuation data for an address
func (c *Client) GetPropertyDetails(ctx context.Context, address, city, state, zipCode string) (*PropertyInfo, error) {
	query := url.Values{}
	query.Set("address1", address)
	query.Set("address2", fmt.Sprintf("%s, %s %s", city, state, zipCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/property/detail?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("valuation service returned status %d", resp.StatusCode)
	}

	var info PropertyInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}
