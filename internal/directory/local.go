package directory

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"holdem-server/internal/apperrors"
)

// LocalClient is the MODE=test short circuit: tokens are verified
// against a local HMAC secret, wallet ops succeed against an in-memory
// balance map, and notifications are recorded rather than sent.
type LocalClient struct {
	secret []byte

	mu        sync.Mutex
	balances  map[string]int64
	unseated  []string
	histories int
}

func NewLocal(secret string) *LocalClient {
	return &LocalClient{secret: []byte(secret), balances: map[string]int64{}}
}

// SignToken mints the token form LocalClient verifies:
// "<userId>:<username>:<hex hmac-sha256>".
func (c *LocalClient) SignToken(userID, username string) string {
	return userID + ":" + username + ":" + c.sign(userID, username)
}

func (c *LocalClient) sign(userID, username string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(userID + "\x00" + username))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *LocalClient) VerifyToken(_ context.Context, token string) (Identity, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return Identity{}, apperrors.New(apperrors.Authentication, "malformed token")
	}
	userID, username, sig := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(sig), []byte(c.sign(userID, username))) {
		return Identity{}, apperrors.New(apperrors.Authentication, "bad token signature")
	}
	return Identity{UserID: userID, Username: username}, nil
}

func (c *LocalClient) DebitWallet(_ context.Context, userID, _ string, amount int64, _ string) (WalletResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[userID] -= amount
	return WalletResult{Success: true, NewBalance: c.balances[userID]}, nil
}

func (c *LocalClient) CreditWallet(_ context.Context, userID, _ string, amount int64, _ string) (WalletResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[userID] += amount
	return WalletResult{Success: true, NewBalance: c.balances[userID]}, nil
}

func (c *LocalClient) UnseatPlayer(_ context.Context, tableID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unseated = append(c.unseated, tableID+"/"+userID)
	return nil
}

func (c *LocalClient) CheckCleanup(_ context.Context, tableID string) (bool, error) {
	log.Debug().Str("table_id", tableID).Msg("local check-cleanup")
	return false, nil
}

func (c *LocalClient) GetTableConfig(_ context.Context, _ string) (TableConfig, error) {
	return TableConfig{}, nil
}

func (c *LocalClient) RecordHandHistory(_ context.Context, _, tableID, _ string, _ []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.histories++
	log.Debug().Str("table_id", tableID).Msg("local hand history recorded")
	return nil
}

// Unseated returns the tableId/userId pairs unseated so far, for tests.
func (c *LocalClient) Unseated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.unseated))
	copy(out, c.unseated)
	return out
}

// Histories returns how many hand-history records were accepted.
func (c *LocalClient) Histories() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.histories
}

// Balance reports a user's net wallet movement so far.
func (c *LocalClient) Balance(userID string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balances[userID]
}
