// Package ledger reports money intents to the Directory Service. The
// core never holds balances itself: a seat's buy-in is a debit intent,
// and the single payout point is when the user leaves the table.
package ledger

import (
	"context"

	"holdem-server/internal/directory"
)

type Ledger struct {
	Directory directory.Client
}

func New(d directory.Client) *Ledger {
	return &Ledger{Directory: d}
}

// DebitBuyIn reports the buy-in intent when a user takes a seat.
func (l *Ledger) DebitBuyIn(ctx context.Context, userID, communityID, tableID string, amount int64) (int64, error) {
	res, err := l.Directory.DebitWallet(ctx, userID, communityID, amount, "buyin:"+tableID)
	if err != nil {
		return 0, err
	}
	return res.NewBalance, nil
}

// CreditPayout reports the remaining stack back to the wallet when a
// user leaves the table.
func (l *Ledger) CreditPayout(ctx context.Context, userID, communityID, tableID string, amount int64) (int64, error) {
	res, err := l.Directory.CreditWallet(ctx, userID, communityID, amount, "payout:"+tableID)
	if err != nil {
		return 0, err
	}
	return res.NewBalance, nil
}
