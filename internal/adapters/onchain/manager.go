package onchain

// manager.go drives the offer-book manager contract: taking fixed and
// dynamic offers, placing new offers, and cancelling them. The manager
// address comes from remote configuration per network, resolved on every
// call so address rotations take effect without a restart.

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/internal/domain"
	"github.com/jperezh/swarmtrader/internal/ports"
)

var managerABI abi.ABI

func init() {
	var err error
	managerABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "takeOfferFixed",
			"type": "function",
			"inputs": [
				{"name": "offerId", "type": "uint256"},
				{"name": "withdrawalAmountPaid", "type": "uint256"},
				{"name": "affiliate", "type": "address"}
			],
			"outputs": []
		},
		{
			"name": "takeOfferDynamic",
			"type": "function",
			"inputs": [
				{"name": "offerId", "type": "uint256"},
				{"name": "withdrawalAmountPaid", "type": "uint256"},
				{"name": "maximumDepositToWithdrawalRate", "type": "uint256"},
				{"name": "affiliate", "type": "address"}
			],
			"outputs": []
		},
		{
			"name": "makeOffer",
			"type": "function",
			"inputs": [
				{"name": "depositAsset", "type": "address"},
				{"name": "depositAmount", "type": "uint256"},
				{"name": "withdrawalAsset", "type": "address"},
				{"name": "withdrawalAmount", "type": "uint256"},
				{"name": "isDynamic", "type": "bool"},
				{"name": "expiryTimestamp", "type": "uint256"}
			],
			"outputs": [{"name": "offerId", "type": "uint256"}]
		},
		{
			"name": "cancelOffer",
			"type": "function",
			"inputs": [{"name": "offerId", "type": "uint256"}],
			"outputs": []
		}
	]`))
	if err != nil {
		panic("manager abi parse: " + err.Error())
	}
}

// Manager implements ports.OfferTaker on top of a Wallet and an AddressBook.
type Manager struct {
	wallet    *Wallet
	addresses ports.AddressBook
}

// NewManager wires the offer-book contract driver.
func NewManager(wallet *Wallet, addresses ports.AddressBook) *Manager {
	return &Manager{wallet: wallet, addresses: addresses}
}

// TakeOfferFixed pays amount of paymentToken into a fixed-price offer.
// Approves the manager contract first when the allowance is short.
func (m *Manager) TakeOfferFixed(ctx context.Context, offerID, paymentToken string, amount decimal.Decimal, affiliate string) (string, error) {
	managerAddr, err := m.managerAddress(ctx)
	if err != nil {
		return "", err
	}
	id, err := parseOfferID(offerID)
	if err != nil {
		return "", err
	}
	paid, err := m.wallet.toBaseUnits(ctx, common.HexToAddress(paymentToken), amount)
	if err != nil {
		return "", err
	}

	if _, err := m.wallet.EnsureAllowance(ctx, paymentToken, managerAddr.Hex(), amount); err != nil {
		return "", fmt.Errorf("manager: approve payment: %w", err)
	}

	callData, err := managerABI.Pack("takeOfferFixed", id, paid, affiliateOrZero(affiliate))
	if err != nil {
		return "", fmt.Errorf("manager: pack takeOfferFixed: %w", err)
	}

	slog.Info("manager: taking fixed offer", "offer_id", offerID, "amount", amount)
	return m.wallet.SendAndConfirm(ctx, managerAddr, callData, transferGasLimit)
}

// TakeOfferDynamic pays amount into a dynamic offer with maxRate as the
// on-chain slippage ceiling. maxRate is in payment-token units.
func (m *Manager) TakeOfferDynamic(ctx context.Context, offerID, paymentToken string, amount, maxRate decimal.Decimal, affiliate string) (string, error) {
	managerAddr, err := m.managerAddress(ctx)
	if err != nil {
		return "", err
	}
	id, err := parseOfferID(offerID)
	if err != nil {
		return "", err
	}
	token := common.HexToAddress(paymentToken)
	paid, err := m.wallet.toBaseUnits(ctx, token, amount)
	if err != nil {
		return "", err
	}
	rate, err := m.wallet.toBaseUnits(ctx, token, maxRate)
	if err != nil {
		return "", err
	}

	if _, err := m.wallet.EnsureAllowance(ctx, paymentToken, managerAddr.Hex(), amount); err != nil {
		return "", fmt.Errorf("manager: approve payment: %w", err)
	}

	callData, err := managerABI.Pack("takeOfferDynamic", id, paid, rate, affiliateOrZero(affiliate))
	if err != nil {
		return "", fmt.Errorf("manager: pack takeOfferDynamic: %w", err)
	}

	slog.Info("manager: taking dynamic offer", "offer_id", offerID, "amount", amount, "max_rate", maxRate)
	return m.wallet.SendAndConfirm(ctx, managerAddr, callData, transferGasLimit)
}

// MakeOffer deposits terms.DepositAmount into a new resting offer.
func (m *Manager) MakeOffer(ctx context.Context, terms domain.OfferTerms) (string, string, error) {
	managerAddr, err := m.managerAddress(ctx)
	if err != nil {
		return "", "", err
	}

	depositToken := common.HexToAddress(terms.DepositAsset)
	depositBase, err := m.wallet.toBaseUnits(ctx, depositToken, terms.DepositAmount)
	if err != nil {
		return "", "", err
	}
	withdrawalAmount := terms.DepositAmount.Mul(terms.PricePerUnit)
	withdrawalBase, err := m.wallet.toBaseUnits(ctx, common.HexToAddress(terms.WithdrawalAsset), withdrawalAmount)
	if err != nil {
		return "", "", err
	}

	if _, err := m.wallet.EnsureAllowance(ctx, terms.DepositAsset, managerAddr.Hex(), terms.DepositAmount); err != nil {
		return "", "", fmt.Errorf("manager: approve deposit: %w", err)
	}

	callData, err := packMakeOffer(terms, depositBase, withdrawalBase)
	if err != nil {
		return "", "", fmt.Errorf("manager: pack makeOffer: %w", err)
	}

	slog.Info("manager: creating offer",
		"deposit", terms.DepositAmount, "price_per_unit", terms.PricePerUnit, "pricing", terms.Pricing)
	txHash, err := m.wallet.SendAndConfirm(ctx, managerAddr, callData, transferGasLimit)
	if err != nil {
		return "", txHash, err
	}
	// The offer ID lives in the OfferCreated event log; the RFQ API indexes
	// it within a block, so callers list offers to find the new ID.
	return "", txHash, nil
}

// CancelOffer withdraws a resting offer. Only the maker can cancel.
func (m *Manager) CancelOffer(ctx context.Context, offerID string) (string, error) {
	managerAddr, err := m.managerAddress(ctx)
	if err != nil {
		return "", err
	}
	id, err := parseOfferID(offerID)
	if err != nil {
		return "", err
	}
	callData, err := managerABI.Pack("cancelOffer", id)
	if err != nil {
		return "", fmt.Errorf("manager: pack cancelOffer: %w", err)
	}

	slog.Info("manager: cancelling offer", "offer_id", offerID)
	return m.wallet.SendAndConfirm(ctx, managerAddr, callData, approvalGasLimit)
}

// managerAddress resolves the contract for the wallet's network. Fatal when
// the address book cannot serve it.
func (m *Manager) managerAddress(ctx context.Context) (common.Address, error) {
	addr, err := m.addresses.ManagerAddress(ctx, m.wallet.Network())
	if err != nil {
		return common.Address{}, fmt.Errorf("manager: resolve contract address: %w", err)
	}
	return common.HexToAddress(addr), nil
}

// affiliateOrZero maps an empty affiliate to the zero address.
func affiliateOrZero(affiliate string) common.Address {
	if affiliate == "" {
		return common.Address{}
	}
	return common.HexToAddress(affiliate)
}

// packMakeOffer builds the makeOffer calldata. A zero ExpiresAt packs as
// expiry 0, which the contract treats as non-expiring.
func packMakeOffer(terms domain.OfferTerms, depositBase, withdrawalBase *big.Int) ([]byte, error) {
	var expiry int64
	if !terms.ExpiresAt.IsZero() {
		expiry = terms.ExpiresAt.Unix()
	}
	return managerABI.Pack("makeOffer",
		common.HexToAddress(terms.DepositAsset),
		depositBase,
		common.HexToAddress(terms.WithdrawalAsset),
		withdrawalBase,
		terms.Pricing == domain.PricingDynamic,
		big.NewInt(expiry),
	)
}

// parseOfferID accepts decimal or 0x-prefixed hex offer IDs.
func parseOfferID(offerID string) (*big.Int, error) {
	var (
		id *big.Int
		ok bool
	)
	if strings.HasPrefix(offerID, "0x") {
		id, ok = new(big.Int).SetString(strings.TrimPrefix(offerID, "0x"), 16)
	} else {
		id, ok = new(big.Int).SetString(offerID, 10)
	}
	if !ok {
		return nil, fmt.Errorf("manager: invalid offer id %q", offerID)
	}
	return id, nil
}
