package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatbackup/pkg/config"
	"chatbackup/pkg/errors"
	"chatbackup/pkg/logger"
	"chatbackup/pkg/ratelimit"
)

// Client represents a Microsoft Graph API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a Graph client from the graph configuration section.
// A nil limiter disables request pacing and a nil logger uses the global one.
func NewClient(cfg *config.GraphConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	headers := map[string]string{
		"Accept": "application/json, text/plain, */*",
	}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	if cfg.Token != "" {
		headers["Authorization"] = "Bearer " + cfg.Token
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: headers,
		baseURL: TrimBaseURL(cfg.BaseURL),
		limiter: limiter,
		logger:  log,
	}
}

// BaseURL returns the API root every request URL is built on
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest waits for the limiter and performs an HTTP request with the
// configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, req.URL.String(), err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, req.URL.String(), err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown, url, fmt.Errorf("failed to create request: %w", err))
	}

	return c.doRequest(req)
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeNetwork, url, fmt.Errorf("failed to read response body: %w", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			URL:     url,
			Err:     err,
		}
	}

	return nil
}

// checkResponseStatus maps non-success responses onto typed errors. The
// Graph error body, when present, becomes the error message.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	errorType := errors.TypeForStatus(resp.StatusCode)
	if errorType == "" {
		return nil
	}

	url := resp.Request.URL.String()
	message := http.StatusText(resp.StatusCode)
	var apiErr errorResponse
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10)); err == nil {
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			message = apiErr.Error.Code + ": " + apiErr.Error.Message
		}
	}

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    url,
		"type":   string(errorType),
	}
	if errorType == errors.ErrorTypeServerError || errorType == errors.ErrorTypeUnknown {
		c.logger.ErrorWithFields("Graph API error", fields)
	} else {
		c.logger.WarnWithFields("Graph API error", fields)
	}

	return errors.New(errorType, resp.StatusCode, url, message)
}

// FetchMessages fetches one page of chat messages. url is either the first
// page URL from MessagesURL or a continuation link from a previous page.
func (c *Client) FetchMessages(ctx context.Context, url string) (*MessagePage, error) {
	c.logger.DebugWithFields("fetching message page", map[string]interface{}{
		"url": url,
	})

	var page MessagePage
	if err := c.GetJSON(ctx, url, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// FetchProfile fetches the signed-in user's profile
func (c *Client) FetchProfile(ctx context.Context) (*Profile, error) {
	url := ProfileURL(c.baseURL)

	var profile Profile
	if err := c.GetJSON(ctx, url, &profile); err != nil {
		return nil, err
	}
	if profile.ID == "" {
		return nil, errors.New(errors.ErrorTypeParsing, http.StatusOK, url, "profile response has no id")
	}

	c.logger.DebugWithFields("fetched profile", map[string]interface{}{
		"id":           profile.ID,
		"display_name": profile.DisplayName,
	})

	return &profile, nil
}

// OpenImage starts downloading an image and returns its body as a stream.
// The caller must close the returned reader.
func (c *Client) OpenImage(ctx context.Context, url string) (io.ReadCloser, error) {
	c.logger.DebugWithFields("downloading image", map[string]interface{}{
		"url": url,
	})

	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp.Body, nil
}
