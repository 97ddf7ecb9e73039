// Package paapi is a client for the Amazon Product Advertising API
// (GetItems, batched price lookup).
package paapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/models"
)

// MaxBatchSize is the upstream hard limit on item IDs per GetItems call.
const MaxBatchSize = 10

var ErrBatchTooLarge = errors.New("paapi: batch exceeds 10 item ids")

type Config struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	PartnerTag  string
	Marketplace string
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	const op = "paapi.New"

	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%s: missing endpoint or credentials", op)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type getItemsRequest struct {
	ItemIds     []string `json:"ItemIds"`
	Resources   []string `json:"Resources"`
	PartnerTag  string   `json:"PartnerTag"`
	PartnerType string   `json:"PartnerType"`
	Marketplace string   `json:"Marketplace"`
}

type getItemsResponse struct {
	ItemsResult struct {
		Items []struct {
			ASIN   string `json:"ASIN"`
			Offers *struct {
				Listings []struct {
					Price *struct {
						Amount   float64 `json:"Amount"`
						Currency string  `json:"Currency"`
					} `json:"Price"`
				} `json:"Listings"`
			} `json:"Offers"`
		} `json:"Items"`
	} `json:"ItemsResult"`
	Errors []struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Errors"`
}

// GetProductInfo looks up price information for up to MaxBatchSize ASINs.
// ASINs unknown upstream are absent from the result. Authentication and
// throttling failures surface as *AuthenticationError / *RateLimitError.
func (c *Client) GetProductInfo(ctx context.Context, asins []string) ([]models.ProductPrice, error) {
	const op = "paapi.GetProductInfo"

	if len(asins) > MaxBatchSize {
		return nil, fmt.Errorf("%s: %w", op, ErrBatchTooLarge)
	}
	if len(asins) == 0 {
		return nil, nil
	}

	reqBody := getItemsRequest{
		ItemIds: asins,
		Resources: []string{
			"Offers.Listings.Price",
		},
		PartnerTag:  c.cfg.PartnerTag,
		PartnerType: "Associates",
		Marketplace: c.cfg.Marketplace,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.cfg.Endpoint+"/paapi5/getitems",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("X-Amz-Target", "com.amazon.paapi5.v1.ProductAdvertisingAPIv1.GetItems")
	req.Header.Set("Authorization", c.authorization(body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthenticationError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{Message: string(respBody)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, respBody)
	}

	var parsed getItemsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	items := make([]models.ProductPrice, 0, len(parsed.ItemsResult.Items))
	for _, it := range parsed.ItemsResult.Items {
		item := models.ProductPrice{ASIN: it.ASIN}

		if it.Offers != nil && len(it.Offers.Listings) > 0 && it.Offers.Listings[0].Price != nil {
			price := it.Offers.Listings[0].Price.Amount
			item.Price = &price
			item.Currency = it.Offers.Listings[0].Price.Currency
		}

		items = append(items, item)
	}

	return items, nil
}

// authorization builds a request signature from the secret key and the
// request payload.
func (c *Client) authorization(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write(payload)

	return fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s, SignedHeaders=content-type;x-amz-target, Signature=%s",
		c.cfg.AccessKey,
		hex.EncodeToString(mac.Sum(nil)),
	)
}
