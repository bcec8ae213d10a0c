// Package directory is the outbound adapter for the external Directory
// Service: token verification, wallet debit/credit intents, unseat and
// cleanup notifications, table config lookup, and best-effort hand
// history recording.
package directory

import "context"

// Identity is the verified owner of a credential token.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// WalletResult is the outcome of a debit or credit intent.
type WalletResult struct {
	Success    bool  `json:"success"`
	NewBalance int64 `json:"newBalance"`
}

// TableConfig is the directory's per-table configuration.
type TableConfig struct {
	ActionTimeoutSeconds int  `json:"actionTimeoutSeconds"`
	Permanent            bool `json:"permanent"`
}

// Client is what the core needs from the Directory Service. The table
// session never lets a failure here leak into game state: wallet calls
// retry with bounded attempts, everything else is logged and dropped.
type Client interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
	DebitWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (WalletResult, error)
	CreditWallet(ctx context.Context, userID, communityID string, amount int64, memo string) (WalletResult, error)
	UnseatPlayer(ctx context.Context, tableID, userID string) error
	CheckCleanup(ctx context.Context, tableID string) (deleted bool, err error)
	GetTableConfig(ctx context.Context, tableID string) (TableConfig, error)
	RecordHandHistory(ctx context.Context, communityID, tableID, name string, handData []byte) error
}
