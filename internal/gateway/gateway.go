// Package gateway holds thin HTTP clients for the external payment and
// contract systems, plus local fallbacks for development.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentClient queries the payment provider for session status.
type PaymentClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPaymentClient constructs a PaymentClient for the given provider.
func NewPaymentClient(baseURL, apiKey string) *PaymentClient {
	return &PaymentClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sessionResponse struct {
	Status string          `json:"status"`
	Amount decimal.Decimal `json:"amount"`
}

// DepositStatus reports whether the payment session has been settled and for
// how much.
func (c *PaymentClient) DepositStatus(ctx context.Context, sessionID string) (bool, decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v1/sessions/%s", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, decimal.Zero, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return false, decimal.Zero, fmt.Errorf("payment provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, decimal.Zero, fmt.Errorf("unknown payment session %s", sessionID)
	}
	if resp.StatusCode != http.StatusOK {
		return false, decimal.Zero, fmt.Errorf("payment provider returned %d", resp.StatusCode)
	}

	var sr sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return false, decimal.Zero, fmt.Errorf("decode payment session: %w", err)
	}
	return sr.Status == "paid", sr.Amount, nil
}

// ContractClient requests contract generation from the document service.
type ContractClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewContractClient constructs a ContractClient.
func NewContractClient(baseURL, apiKey string) *ContractClient {
	return &ContractClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type contractRequest struct {
	AuctionID   string          `json:"auction_id"`
	BuyerUserID string          `json:"buyer_user_id"`
	Price       decimal.Decimal `json:"price"`
}

type contractResponse struct {
	ID string `json:"id"`
}

// CreateContract asks the document service to draft a sale contract.
func (c *ContractClient) CreateContract(ctx context.Context, auctionID, buyerUserID string, price decimal.Decimal) (string, error) {
	body, err := json.Marshal(contractRequest{AuctionID: auctionID, BuyerUserID: buyerUserID, Price: price})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/contracts", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("contract service request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("contract service returned %d", resp.StatusCode)
	}

	var cr contractResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode contract response: %w", err)
	}
	return cr.ID, nil
}

// StaticPayments treats every session as paid at a fixed amount. Development
// fallback when no payment provider is configured.
type StaticPayments struct {
	Amount decimal.Decimal
}

func (g StaticPayments) DepositStatus(ctx context.Context, sessionID string) (bool, decimal.Decimal, error) {
	return true, g.Amount, nil
}

// LocalContracts issues a contract ID without calling any external service.
// Development fallback when no contract service is configured.
type LocalContracts struct{}

func (LocalContracts) CreateContract(ctx context.Context, auctionID, buyerUserID string, price decimal.Decimal) (string, error) {
	return uuid.NewString(), nil
}
