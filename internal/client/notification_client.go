package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yourorg/schoolhealth-notify/internal/model"
)

const markReadMaxRetries = 3

// NotificationClient handles communication with the notification API.
// It holds no notification state; every call reads the bearer token from the
// credential store so a token refreshed mid-session is picked up.
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
	creds      *CredentialStore
	logger     *zap.Logger
}

// NewNotificationClient creates a new notification API client. The request
// timeout should stay below the poll interval so in-flight requests cannot
// pile up across ticks.
func NewNotificationClient(baseURL string, timeout time.Duration, creds *CredentialStore, logger *zap.Logger) *NotificationClient {
	return &NotificationClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		creds:  creds,
		logger: logger,
	}
}

// FetchPage retrieves one page of notifications plus the unread count for
// the given user. The returned page is server-authoritative and is handed to
// the reconciler verbatim.
func (c *NotificationClient) FetchPage(ctx context.Context, userID, page, pageSize int) (*model.NotificationPage, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("invalid pagination: page=%d pageSize=%d", page, pageSize)
	}

	// Credential check happens before any network I/O
	token, err := c.creds.AccessToken()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/notify/user/%d?page=%d&limit=%d", c.baseURL, userID, page, pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.logger.Debug("notification fetch rejected",
			zap.Int("status", resp.StatusCode),
			zap.Int("userID", userID),
			zap.Int("page", page))
		return nil, err
	}

	var pageResp model.NotificationPage
	if err := json.NewDecoder(resp.Body).Decode(&pageResp); err != nil {
		return nil, fmt.Errorf("%w: decoding page response: %v", ErrServer, err)
	}

	return &pageResp, nil
}

// MarkRead marks the given notifications as read. The operation is
// idempotent server-side, so transient failures are retried with exponential
// backoff; auth failures are permanent and returned immediately.
func (c *NotificationClient) MarkRead(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return fmt.Errorf("mark-read called with no ids")
	}

	token, err := c.creds.AccessToken()
	if err != nil {
		return err
	}

	body, err := json.Marshal(model.MarkReadRequest{NotificationIDs: ids})
	if err != nil {
		return err
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/notify/mark-read", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		defer resp.Body.Close()

		if err := checkStatus(resp); err != nil {
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return backoff.Permanent(err)
			}
			return err
		}

		io.Copy(io.Discard, resp.Body)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), markReadMaxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		c.logger.Error("failed to mark notifications as read",
			zap.Ints("ids", ids),
			zap.Error(err))
		return err
	}

	return nil
}

// checkStatus maps an HTTP response status onto the client error taxonomy
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	}
}
