// Package phonevalidator looks up phone numbers against the phone intelligence service.
package phonevalidator

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/lwilliamskeiter/leads-reformat/internal/config"
	"github.com/lwilliamskeiter/leads-reformat/internal/logger"
	"github.com/lwilliamskeiter/leads-reformat/internal/models"
	"github.com/lwilliamskeiter/leads-reformat/pkg/utils"
)

// Lookup errors.
var (
	ErrLookupFailed  = errors.New("phone lookup failed")
	ErrMissingAPIKey = errors.New("lookup client requires an api key")
	ErrInvalidURL    = errors.New("lookup base url must be an absolute http(s) url")
)

// maxBodyBytes caps a lookup response.
const maxBodyBytes = 1 << 20

// Client defines the interface for the lookup service.
type Client interface {
	Lookup(ctx context.Context, digits string) (models.ValidationRecord, error)
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// HTTPClient calls the phonesearch endpoint with type=basic.
type HTTPClient struct {
	httpClient *http.Client
	helper     *utils.HTTPHelper
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

type searchResponse struct {
	PhoneBasic    json.RawMessage `json:"PhoneBasic"`
	StatusCode    json.RawMessage `json:"StatusCode"`
	StatusMessage json.RawMessage `json:"StatusMessage"`
}

// NewHTTPClient creates a lookup client from config.
func NewHTTPClient(cfg config.LookupConfig, apiKey string, log *logger.Logger) (*HTTPClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	helper := utils.NewHTTPHelper()
	if !helper.IsValidURL(cfg.BaseURL) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, cfg.BaseURL)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // the service's chain does not verify
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout:   cfg.GetTimeout(),
			Transport: transport,
		},
		helper:  helper,
		baseURL: cfg.BaseURL,
		apiKey:  apiKey,
		logger:  log,
	}, nil
}

// Lookup fetches the basic record for a bare 10-digit number.
// Service error payloads come back as a record; only transport failures are errors.
func (c *HTTPClient) Lookup(ctx context.Context, digits string) (models.ValidationRecord, error) {
	endpoint, err := c.helper.WithQuery(c.baseURL, map[string]string{
		"apikey": c.apiKey,
		"phone":  digits,
		"type":   "basic",
	})
	if err != nil {
		return models.ValidationRecord{}, fmt.Errorf("failed to build lookup url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return models.ValidationRecord{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = c.helper.BuildHeaders(nil)

	if c.logger != nil {
		c.logger.Debug("phone lookup", "phone", digits)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ValidationRecord{}, fmt.Errorf("%w: %s: %w", ErrLookupFailed, digits, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.ValidationRecord{}, fmt.Errorf("%w: %s: failed to read response: %w", ErrLookupFailed, digits, err)
	}

	return decodeRecord(resp.StatusCode, body), nil
}

func decodeRecord(status int, body []byte) models.ValidationRecord {
	httpError := models.ValidationRecord{
		ErrorCode:        strconv.Itoa(status),
		ErrorDescription: http.StatusText(status),
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if status < 200 || status > 299 {
			return httpError
		}

		return models.ValidationRecord{
			ErrorCode:        strconv.Itoa(status),
			ErrorDescription: "unreadable response",
		}
	}

	if rec, ok := decodeBasic(parsed.PhoneBasic); ok {
		return rec
	}

	if code := scalar(parsed.StatusCode); code != "" {
		return models.ValidationRecord{
			ErrorCode:        code,
			ErrorDescription: scalar(parsed.StatusMessage),
		}
	}

	if status < 200 || status > 299 {
		return httpError
	}

	return models.ValidationRecord{
		ErrorCode:        strconv.Itoa(status),
		ErrorDescription: "response has no PhoneBasic record",
	}
}

// decodeBasic reads a PhoneBasic object field by field, so a number or null
// where a string is expected does not lose the whole record.
func decodeBasic(raw json.RawMessage) (models.ValidationRecord, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return models.ValidationRecord{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.ValidationRecord{}, false
	}

	flat := make(map[string]string, len(fields))
	for k, v := range fields {
		flat[k] = scalar(v)
	}

	var rec models.ValidationRecord

	data, err := json.Marshal(flat)
	if err != nil {
		return models.ValidationRecord{}, false
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return models.ValidationRecord{}, false
	}

	return rec, true
}

// scalar renders a JSON value as text. Strings are unquoted, null is empty and
// anything else keeps its literal form.
func scalar(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}

	return string(raw)
}
