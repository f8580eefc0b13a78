package webhook

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client is a small HTTP client used to deliver webhook payloads,
// wrapping go.uber.org/zap for structured request logging.
type Client struct {
	logger *zap.Logger
	c      *http.Client
}

// NewClient builds a Client. insecureSkipVerify is exposed for talking
// to receivers behind self-signed certificates in development; it
// should stay false in production configurations.
func NewClient(logger *zap.Logger, insecureSkipVerify bool) *Client {
	return &Client{
		logger: logger,
		c: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: insecureSkipVerify},
			},
		},
	}
}

func authenticationError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("webhook: read response body: %w", err)
	}
	return fmt.Errorf("webhook: authentication failed: %s", string(body))
}

// Send issues request with the given timeout and returns its body.
func (c *Client) Send(request *http.Request, timeout time.Duration) ([]byte, error) {
	c.c.Timeout = timeout
	resp, err := c.c.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, authenticationError(resp)
	}

	return io.ReadAll(resp.Body)
}

// SendEntity behaves like Send but returns the full Response (status,
// headers, body) instead of just the body bytes.
func (c *Client) SendEntity(request *http.Request, timeout time.Duration) (*Response, error) {
	c.c.Timeout = timeout
	resp, err := c.c.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		authErr := authenticationError(resp)
		c.logger.Error("webhook authentication failed", zap.Error(authErr), zap.Any("header", resp.Header))
		return nil, authErr
	}

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("webhook response body read failed", zap.Error(err))
		return nil, err
	}

	c.logger.Debug("webhook request succeeded", zap.Int("status", resp.StatusCode))
	return NewResponse().SetStatus(resp.StatusCode).SetBody(out).SetHeader(resp.Header), nil
}
