package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"holdem-server/internal/apperrors"
)

const walletRetryAttempts = 3

// HTTPClient talks JSON to the Directory Service. Wallet calls retry
// with capped backoff; the rest fail fast and leave retry policy to
// the caller.
type HTTPClient struct {
	baseURL string
	inner   *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		inner:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) VerifyToken(ctx context.Context, token string) (Identity, error) {
	var out Identity
	err := c.postJSON(ctx, "/internal/verify-token", map[string]any{"token": token}, &out)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.Authentication, "token verification failed", err)
	}
	if out.UserID == "" {
		return Identity{}, apperrors.New(apperrors.Authentication, "token resolved to no user")
	}
	return out, nil
}

func (c *HTTPClient) DebitWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (WalletResult, error) {
	return c.walletOp(ctx, "/internal/wallet/debit", userID, communityID, amount, memo)
}

func (c *HTTPClient) CreditWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (WalletResult, error) {
	return c.walletOp(ctx, "/internal/wallet/credit", userID, communityID, amount, memo)
}

// walletOp retries money intents with bounded attempts: these are the
// only Directory calls whose loss the product can't tolerate silently.
func (c *HTTPClient) walletOp(ctx context.Context, path, userID, communityID string, amount int64, memo string) (WalletResult, error) {
	body := map[string]any{
		"userId":      userID,
		"communityId": communityID,
		"amount":      amount,
		"memo":        memo,
	}
	var lastErr error
	for attempt := 1; attempt <= walletRetryAttempts; attempt++ {
		var out WalletResult
		if err := c.postJSON(ctx, path, body, &out); err != nil {
			lastErr = err
			log.Warn().Err(err).Str("user_id", userID).Int("attempt", attempt).Str("op", path).Msg("wallet call failed")
			select {
			case <-ctx.Done():
				return WalletResult{}, apperrors.Wrap(apperrors.External, "wallet call cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			}
			continue
		}
		return out, nil
	}
	return WalletResult{}, apperrors.Wrap(apperrors.External, "wallet call exhausted retries", lastErr)
}

func (c *HTTPClient) UnseatPlayer(ctx context.Context, tableID, userID string) error {
	err := c.postJSON(ctx, "/internal/unseat-player", map[string]any{"tableId": tableID, "userId": userID}, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.External, "unseat player", err)
	}
	return nil
}

func (c *HTTPClient) CheckCleanup(ctx context.Context, tableID string) (bool, error) {
	var out struct {
		Deleted bool `json:"deleted"`
	}
	if err := c.postJSON(ctx, "/internal/check-cleanup", map[string]any{"tableId": tableID}, &out); err != nil {
		return false, apperrors.Wrap(apperrors.External, "check cleanup", err)
	}
	return out.Deleted, nil
}

func (c *HTTPClient) GetTableConfig(ctx context.Context, tableID string) (TableConfig, error) {
	var out TableConfig
	if err := c.getJSON(ctx, "/internal/tables/"+tableID+"/config", &out); err != nil {
		return TableConfig{}, apperrors.Wrap(apperrors.External, "get table config", err)
	}
	return out, nil
}

func (c *HTTPClient) RecordHandHistory(ctx context.Context, communityID, tableID, name string, handData []byte) error {
	body := map[string]any{
		"communityId": communityID,
		"tableId":     tableID,
		"name":        name,
		"handData":    json.RawMessage(handData),
	}
	if err := c.postJSON(ctx, "/internal/hand-history", body, nil); err != nil {
		return apperrors.Wrap(apperrors.External, "record hand history", err)
	}
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.inner.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("directory returned status %d", resp.StatusCode)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
