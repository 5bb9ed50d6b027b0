// Package client is a typed Go client for the EatYaar REST API. It holds
// the session token explicitly instead of in package globals, so login
// and logout are just methods and background consumers (the notification
// poller) can be torn down deterministically.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
)

// APIError is a non-2xx response from the backend, carrying the
// human-readable message from the JSON body. Transport-level failures
// are returned as ordinary errors, not APIErrors, so callers can tell a
// rejected operation from a network problem.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type AuthResult struct {
	Token     string    `json:"token"`
	UserID    uuid.UUID `json:"userId"`
	Phone     string    `json:"phone"`
	IsNewUser bool      `json:"isNewUser"`
}

type User struct {
	ID         uuid.UUID `json:"id"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name"`
	City       string    `json:"city"`
	Area       string    `json:"area"`
	TrustScore float64   `json:"trustScore"`
}

type Listing struct {
	ID                 uuid.UUID `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	FoodType           string    `json:"foodType"`
	Servings           int       `json:"servings"`
	CookedAt           time.Time `json:"cookedAt"`
	PickupBy           time.Time `json:"pickupBy"`
	AreaName           string    `json:"areaName"`
	ExactAddress       string    `json:"exactAddress,omitempty"`
	City               string    `json:"city"`
	PhotoURL           string    `json:"photoUrl,omitempty"`
	Status             string    `json:"status"`
	PostedByUserID     uuid.UUID `json:"postedByUserId"`
	PostedByName       string    `json:"postedByName,omitempty"`
	PostedByTrustScore float64   `json:"postedByTrustScore"`
	CreatedAt          time.Time `json:"createdAt"`
}

// ReceivedClaim is the giver-facing claim view from /claims/received.
type ReceivedClaim struct {
	ID            uuid.UUID `json:"id"`
	ListingID     uuid.UUID `json:"listingId"`
	ListingTitle  string    `json:"listingTitle"`
	ClaimedByName string    `json:"claimedByName"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MyClaim is the taker-facing claim view from /claims/my.
type MyClaim struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listingId"`
	ListingTitle    string    `json:"listingTitle"`
	ListingAreaName string    `json:"listingAreaName"`
	ExactAddress    string    `json:"exactAddress,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CreateListingInput struct {
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	FoodType     string    `json:"foodType"`
	Servings     int       `json:"servings"`
	CookedAt     time.Time `json:"cookedAt"`
	PickupBy     time.Time `json:"pickupBy"`
	AreaName     string    `json:"areaName"`
	ExactAddress string    `json:"exactAddress"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	Pincode      string    `json:"pincode,omitempty"`
}

// Client talks to one EatYaar backend. Safe for concurrent use; the
// token is guarded so the poller can keep reading while a login or
// logout happens on another goroutine.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs a session token obtained out of band.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Logout drops the session token. Background pollers must be stopped
// separately; the client itself holds no timers.
func (c *Client) Logout() {
	c.SetToken("")
}

func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) SendOTP(ctx context.Context, phone string) error {
	return c.do(ctx, http.MethodPost, "/auth/send-otp", map[string]string{"phone": phone}, nil)
}

// VerifyOTP exchanges the code for a session and installs the token on
// success.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (*AuthResult, error) {
	var res AuthResult
	err := c.do(ctx, http.MethodPost, "/auth/verify-otp", map[string]string{"phone": phone, "otp": otp}, &res)
	if err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

func (c *Client) CompleteProfile(ctx context.Context, name, city, area string) (*User, error) {
	var u User
	err := c.do(ctx, http.MethodPatch, "/auth/profile", map[string]string{"name": name, "city": city, "area": area}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateListing(ctx context.Context, in CreateListingInput) (*Listing, error) {
	var l Listing
	if err := c.do(ctx, http.MethodPost, "/listings", in, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) Listings(ctx context.Context, city string) ([]Listing, error) {
	var out []Listing
	err := c.do(ctx, http.MethodGet, "/listings?city="+url.QueryEscape(city), nil, &out)
	return out, err
}

func (c *Client) AllListings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	err := c.do(ctx, http.MethodGet, "/listings/all", nil, &out)
	return out, err
}

func (c *Client) MyListings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	err := c.do(ctx, http.MethodGet, "/listings/my", nil, &out)
	return out, err
}

func (c *Client) CreateClaim(ctx context.Context, listingID uuid.UUID) (*ReceivedClaim, error) {
	var claim ReceivedClaim
	err := c.do(ctx, http.MethodPost, "/claims", map[string]uuid.UUID{"listingId": listingID}, &claim)
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ReceivedClaims returns all claims against the caller's listings, in
// arrival order. The notification poller feeds on this.
func (c *Client) ReceivedClaims(ctx context.Context) ([]ReceivedClaim, error) {
	var out []ReceivedClaim
	err := c.do(ctx, http.MethodGet, "/claims/received", nil, &out)
	return out, err
}

func (c *Client) MyClaims(ctx context.Context) ([]MyClaim, error) {
	var out []MyClaim
	err := c.do(ctx, http.MethodGet, "/claims/my", nil, &out)
	return out, err
}

func (c *Client) ApproveClaim(ctx context.Context, claimID uuid.UUID) (*ReceivedClaim, error) {
	return c.patchClaim(ctx, claimID, "approve")
}

func (c *Client) RejectClaim(ctx context.Context, claimID uuid.UUID) (*ReceivedClaim, error) {
	return c.patchClaim(ctx, claimID, "reject")
}

func (c *Client) MarkPickedUp(ctx context.Context, claimID uuid.UUID) (*ReceivedClaim, error) {
	return c.patchClaim(ctx, claimID, "picked-up")
}

func (c *Client) RateClaim(ctx context.Context, claimID uuid.UUID, score int) error {
	return c.do(ctx, http.MethodPost, "/ratings", map[string]interface{}{"claimId": claimID, "score": score}, nil)
}

func (c *Client) patchClaim(ctx context.Context, claimID uuid.UUID, action string) (*ReceivedClaim, error) {
	var claim ReceivedClaim
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/claims/%s/%s", claimID, action), nil, &claim)
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "request failed"}
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.Message != "" {
			apiErr.Message = errBody.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
