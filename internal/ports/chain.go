package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/internal/domain"
)

// ChainClient performs ERC-20 token operations with the configured wallet.
// Addresses are hex strings; amounts are human-readable units, converted to
// base units inside the adapter.
type ChainClient interface {
	// WalletAddress returns the checksummed address of the signing wallet.
	WalletAddress() string

	// TokenBalance returns the wallet's balance of the given token.
	TokenBalance(ctx context.Context, token string) (decimal.Decimal, error)

	// Allowance returns the amount of token the spender may move on the
	// wallet's behalf.
	Allowance(ctx context.Context, token, spender string) (decimal.Decimal, error)

	// Approve grants the spender an allowance of amount and waits for the
	// transaction to confirm.
	Approve(ctx context.Context, token, spender string, amount decimal.Decimal) (txHash string, err error)

	// Transfer sends amount of token to the recipient and waits for the
	// transaction to confirm.
	Transfer(ctx context.Context, token, to string, amount decimal.Decimal) (txHash string, err error)
}

// OfferTaker executes trades against the on-chain offer-book manager
// contract. All calls wait for confirmation and return the transaction hash.
type OfferTaker interface {
	// TakeOfferFixed fills a fixed-price offer, paying amount of the
	// withdrawal asset paymentToken. affiliate may be empty.
	TakeOfferFixed(ctx context.Context, offerID, paymentToken string, amount decimal.Decimal, affiliate string) (txHash string, err error)

	// TakeOfferDynamic fills a dynamically priced offer. maxRate caps the
	// oracle rate accepted at execution time, in payment-token units.
	TakeOfferDynamic(ctx context.Context, offerID, paymentToken string, amount, maxRate decimal.Decimal, affiliate string) (txHash string, err error)

	// MakeOffer places a new resting offer and returns its on-chain ID.
	MakeOffer(ctx context.Context, terms domain.OfferTerms) (offerID, txHash string, err error)

	// CancelOffer withdraws a resting offer owned by this wallet.
	CancelOffer(ctx context.Context, offerID string) (txHash string, err error)
}
