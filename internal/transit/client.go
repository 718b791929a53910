// Package transit talks to the EMT Madrid MobilityLabs API: it logs in once
// and fetches real-time arrival estimates for bus stops.
package transit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"busmonitor.dev/internal/logging"
	"busmonitor.dev/internal/models"
	"busmonitor.dev/internal/utils"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// Client is a synchronous EMT API client. Every call issues exactly one
// request; nothing is cached and nothing is retried.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// Session carries the access token issued by Login. It is never refreshed.
type Session struct {
	AccessToken string
}

// NewSession wraps a pre-issued access token, skipping Login.
func NewSession(token string) Session {
	return Session{AccessToken: token}
}

// Valid reports whether the session holds a token.
func (s Session) Valid() bool {
	return s.AccessToken != ""
}

func NewClient(config Config, logger *slog.Logger) *Client {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		userAgent:  config.UserAgent,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "transit_client")),
	}
}

// Login exchanges the account credentials for an access token. Any failure
// is an *AuthError.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+loginPath, nil)
	if err != nil {
		return Session{}, &AuthError{Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
	}
	// The API expects these header names verbatim, so bypass canonicalization.
	req.Header["email"] = []string{email}
	req.Header["password"] = []string{password}

	body, status, err := c.do(req)
	if err != nil {
		return Session{}, &AuthError{StatusCode: status, Err: fmt.Errorf("%w: %w", ErrNetwork, err)}
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Session{}, &AuthError{StatusCode: status, Err: fmt.Errorf("%w: %w", ErrParse, err)}
	}

	if len(resp.Data) == 0 || resp.Data[0].AccessToken == nil || *resp.Data[0].AccessToken == "" {
		return Session{}, &AuthError{
			StatusCode:  status,
			Code:        resp.Code,
			Description: resp.Description,
			Err:         ErrNoAccessToken,
		}
	}

	logging.LogOperation(c.logger, "transit_login_succeeded", slog.String("api_code", resp.Code))
	return Session{AccessToken: *resp.Data[0].AccessToken}, nil
}

// GetArrivals fetches the arrival estimates for one stop. Failures are
// *FetchError values; arrivals keep the order the API returned them in.
func (c *Client) GetArrivals(ctx context.Context, session Session, stopID string) ([]models.ArrivalTime, error) {
	fail := func(kind Kind, status int, err error) ([]models.ArrivalTime, error) {
		return nil, &FetchError{Kind: kind, StopID: stopID, StatusCode: status, Err: err}
	}

	if err := utils.ValidateID(stopID); err != nil {
		return fail(KindNetwork, 0, fmt.Errorf("invalid stop id: %w", err))
	}
	if !session.Valid() {
		return fail(KindNetwork, 0, ErrNoSession)
	}

	payload, err := json.Marshal(arrivalsRequest{TextEstimationsRequired: "Y"})
	if err != nil {
		return fail(KindNetwork, 0, err)
	}

	url := c.baseURL + fmt.Sprintf(arrivalsPath, stopID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fail(KindNetwork, 0, err)
	}
	req.Header["accessToken"] = []string{session.AccessToken}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	body, status, err := c.do(req)
	if err != nil {
		return fail(KindNetwork, status, err)
	}

	var resp arrivalsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fail(KindParse, status, err)
	}

	if len(resp.Data) == 0 || resp.Data[0].Arrive == nil {
		return fail(KindMissing, status, fmt.Errorf("api code %q: %s", resp.Code, resp.Description))
	}

	entries := *resp.Data[0].Arrive
	arrivals := make([]models.ArrivalTime, 0, len(entries))
	for i, entry := range entries {
		switch {
		case entry.Line == nil:
			return fail(KindParse, status, fmt.Errorf("arrival %d has no line", i))
		case entry.Destination == nil:
			return fail(KindParse, status, fmt.Errorf("arrival %d has no destination", i))
		case entry.EstimateArrive == nil:
			return fail(KindParse, status, fmt.Errorf("arrival %d has no estimateArrive", i))
		}

		arrivals = append(arrivals, models.ArrivalTime{
			StopID:      stopID,
			Line:        *entry.Line,
			Destination: *entry.Destination,
			Seconds:     *entry.EstimateArrive,
		})
	}

	c.logger.Debug("arrivals_fetched",
		slog.String("stop_id", stopID),
		slog.Int("count", len(arrivals)),
		slog.Duration("duration", time.Since(start)))

	return arrivals, nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "http_response_body")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// Authenticated binds a Client to a Session so it can serve as an arrivals
// source.
type Authenticated struct {
	client  *Client
	session Session
}

// WithSession returns an arrivals source that uses session for every fetch.
func (c *Client) WithSession(session Session) *Authenticated {
	return &Authenticated{client: c, session: session}
}

func (a *Authenticated) Arrivals(ctx context.Context, stopID string) ([]models.ArrivalTime, error) {
	return a.client.GetArrivals(ctx, a.session, stopID)
}
