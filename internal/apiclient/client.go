// Package apiclient talks to the GazExpress backend. All business logic --
// identity, catalogue, order assignment, payment -- lives behind this HTTP
// boundary; the client performs single requests with no retry or backoff.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gazexpress/gazexpress/internal/app/domain/catalog"
	"github.com/gazexpress/gazexpress/internal/app/domain/order"
	"github.com/gazexpress/gazexpress/internal/app/domain/user"
	"github.com/gazexpress/gazexpress/pkg/logger"
)

// Client performs requests against the backend API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	log        *logger.Logger
}

// New constructs a client for the backend at baseURL.
func New(httpClient *http.Client, baseURL string, log *logger.Logger) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("api base url required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = logger.NewDefault("apiclient")
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    parsed,
		log:        log,
	}, nil
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

func (c *Client) do(ctx context.Context, method, path, access string, body, target interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (user.TokenPair, error) {
	payload := map[string]string{"email": email, "password": password}
	var tokens user.TokenPair
	if err := c.do(ctx, http.MethodPost, "/api/auth/login/", "", payload, &tokens); err != nil {
		return user.TokenPair{}, err
	}
	return tokens, nil
}

// Profile fetches the authenticated user record.
func (c *Client) Profile(ctx context.Context, access string) (user.User, error) {
	var u user.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile/", access, nil, &u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// Register creates an account. Success carries no meaningful body.
func (c *Client) Register(ctx context.Context, reg user.Registration) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register/", "", reg, nil)
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refresh string) (string, error) {
	payload := map[string]string{"refresh": refresh}
	var resp struct {
		Access string `json:"access"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh/", "", payload, &resp); err != nil {
		return "", err
	}
	return resp.Access, nil
}

// Bouteilles lists the catalogue.
func (c *Client) Bouteilles(ctx context.Context, access string) ([]catalog.Bouteille, error) {
	var bottles []catalog.Bouteille
	if err := c.do(ctx, http.MethodGet, "/api/bouteilles/", access, nil, &bottles); err != nil {
		return nil, err
	}
	return bottles, nil
}

// Zones lists the delivery zones.
func (c *Client) Zones(ctx context.Context, access string) ([]catalog.Zone, error) {
	var zones []catalog.Zone
	if err := c.do(ctx, http.MethodGet, "/api/zones/", access, nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// CreateCommande places an order.
func (c *Client) CreateCommande(ctx context.Context, access string, nc order.NewCommande) (order.Commande, error) {
	var cmd order.Commande
	if err := c.do(ctx, http.MethodPost, "/api/commandes/", access, nc, &cmd); err != nil {
		return order.Commande{}, err
	}
	return cmd, nil
}

// Commandes lists the caller's orders.
func (c *Client) Commandes(ctx context.Context, access string) ([]order.Commande, error) {
	var cmds []order.Commande
	if err := c.do(ctx, http.MethodGet, "/api/commandes/", access, nil, &cmds); err != nil {
		return nil, err
	}
	return cmds, nil
}

// CreatePaiement records a payment against a commande.
func (c *Client) CreatePaiement(ctx context.Context, access string, p order.Paiement) (order.Paiement, error) {
	var created order.Paiement
	if err := c.do(ctx, http.MethodPost, "/api/paiements/", access, p, &created); err != nil {
		return order.Paiement{}, err
	}
	return created, nil
}
