package onchain

// wallet.go holds the signing wallet and ERC-20 plumbing shared by every
// on-chain operation: nonce management, gas pricing with a staleness-bounded
// cache, legacy EIP-155 transactions, and receipt polling with a hard
// confirmation timeout.

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/jperezh/swarmtrader/internal/domain"
)

const (
	// Conservative upper bounds when estimation fails.
	transferGasLimit = uint64(90_000)
	approvalGasLimit = uint64(80_000)

	gasPriceUpdateInterval = 5 * time.Minute
	gasPriceFallbackWei    = int64(30_000_000_000) // 30 gwei

	// Confirmation wait per transaction. After this the attempt fails even
	// though the transaction may still land.
	confirmTimeout = 300 * time.Second
)

var erc20ABI abi.ABI

func init() {
	var err error
	erc20ABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "balanceOf",
			"type": "function",
			"inputs": [{"name": "account", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "decimals",
			"type": "function",
			"inputs": [],
			"outputs": [{"name": "", "type": "uint8"}]
		},
		{
			"name": "allowance",
			"type": "function",
			"inputs": [
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"}
			],
			"outputs": [{"name": "", "type": "uint256"}]
		},
		{
			"name": "approve",
			"type": "function",
			"inputs": [
				{"name": "spender", "type": "address"},
				{"name": "amount", "type": "uint256"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		},
		{
			"name": "transfer",
			"type": "function",
			"inputs": [
				{"name": "to", "type": "address"},
				{"name": "amount", "type": "uint256"}
			],
			"outputs": [{"name": "", "type": "bool"}]
		}
	]`))
	if err != nil {
		panic("erc20 abi parse: " + err.Error())
	}
}

// Wallet implements ports.ChainClient for one network and one signing key.
type Wallet struct {
	client  *ethclient.Client
	privKey *ecdsa.PrivateKey
	address common.Address
	network domain.Network

	mu              sync.RWMutex
	cachedGasWei    *big.Int
	gasUpdatedAt    time.Time
	decimalsByToken map[common.Address]int32
}

// NewWallet connects to the RPC endpoint and derives the wallet address from
// the private key. privateKeyHex accepts an optional 0x prefix.
func NewWallet(rpcURL, privateKeyHex string, network domain.Network) (*Wallet, error) {
	pkBytes, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("wallet: decode private key: %w", err)
	}
	privKey, err := crypto.ToECDSA(pkBytes)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid private key: %w", err)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("wallet: dial rpc %s: %w", rpcURL, err)
	}

	return &Wallet{
		client:          client,
		privKey:         privKey,
		address:         crypto.PubkeyToAddress(privKey.PublicKey),
		network:         network,
		decimalsByToken: make(map[common.Address]int32),
	}, nil
}

func (w *Wallet) WalletAddress() string { return w.address.Hex() }

// Network returns the chain this wallet signs for.
func (w *Wallet) Network() domain.Network { return w.network }

// TokenBalance returns the wallet's balance in human-readable units.
func (w *Wallet) TokenBalance(ctx context.Context, token string) (decimal.Decimal, error) {
	tokenAddr := common.HexToAddress(token)
	raw, err := w.callERC20(ctx, tokenAddr, "balanceOf", w.address)
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet: balanceOf %s: %w", token, err)
	}
	return w.fromBaseUnits(ctx, tokenAddr, raw)
}

// Allowance returns how much of token the spender may move, human-readable.
func (w *Wallet) Allowance(ctx context.Context, token, spender string) (decimal.Decimal, error) {
	tokenAddr := common.HexToAddress(token)
	raw, err := w.callERC20(ctx, tokenAddr, "allowance", w.address, common.HexToAddress(spender))
	if err != nil {
		return decimal.Zero, fmt.Errorf("wallet: allowance %s: %w", token, err)
	}
	return w.fromBaseUnits(ctx, tokenAddr, raw)
}

// Approve grants an allowance and waits for confirmation.
func (w *Wallet) Approve(ctx context.Context, token, spender string, amount decimal.Decimal) (string, error) {
	tokenAddr := common.HexToAddress(token)
	base, err := w.toBaseUnits(ctx, tokenAddr, amount)
	if err != nil {
		return "", err
	}
	callData, err := erc20ABI.Pack("approve", common.HexToAddress(spender), base)
	if err != nil {
		return "", fmt.Errorf("wallet: pack approve: %w", err)
	}
	slog.Info("wallet: approving", "token", token, "spender", spender, "amount", amount)
	return w.SendAndConfirm(ctx, tokenAddr, callData, approvalGasLimit)
}

// Transfer sends tokens and waits for confirmation.
func (w *Wallet) Transfer(ctx context.Context, token, to string, amount decimal.Decimal) (string, error) {
	tokenAddr := common.HexToAddress(token)
	base, err := w.toBaseUnits(ctx, tokenAddr, amount)
	if err != nil {
		return "", err
	}
	callData, err := erc20ABI.Pack("transfer", common.HexToAddress(to), base)
	if err != nil {
		return "", fmt.Errorf("wallet: pack transfer: %w", err)
	}
	slog.Info("wallet: transferring", "token", token, "to", to, "amount", amount)
	return w.SendAndConfirm(ctx, tokenAddr, callData, transferGasLimit)
}

// EnsureAllowance approves the spender only when the current allowance is
// below amount. Returns the approval hash, or empty when nothing was sent.
func (w *Wallet) EnsureAllowance(ctx context.Context, token, spender string, amount decimal.Decimal) (string, error) {
	current, err := w.Allowance(ctx, token, spender)
	if err != nil {
		return "", err
	}
	if current.GreaterThanOrEqual(amount) {
		slog.Debug("wallet: allowance sufficient", "token", token, "have", current, "need", amount)
		return "", nil
	}
	return w.Approve(ctx, token, spender, amount)
}

// SendAndConfirm signs a legacy transaction to the target contract, submits
// it, and waits for the receipt. A reverted receipt or a confirmation
// timeout is a TxFailedError carrying the broadcast hash.
func (w *Wallet) SendAndConfirm(ctx context.Context, to common.Address, callData []byte, fallbackGas uint64) (string, error) {
	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("wallet: nonce: %w", err)
	}
	gasPrice, err := w.gasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("wallet: gas price: %w", err)
	}

	gasLimit, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     w.address,
		To:       &to,
		GasPrice: gasPrice,
		Data:     callData,
	})
	if err != nil {
		gasLimit = fallbackGas
		slog.Warn("wallet: gas estimate failed, using fallback", "err", err, "limit", fallbackGas)
	}
	// 20% buffer
	gasLimit = gasLimit * 12 / 10

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, callData)
	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(w.network.ChainID())), w.privKey)
	if err != nil {
		return "", fmt.Errorf("wallet: sign tx: %w", err)
	}
	if err := w.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("wallet: send tx: %w", err)
	}

	txHash := signed.Hash().Hex()
	slog.Info("wallet: transaction sent", "tx", txHash, "to", to.Hex())

	receiptCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	receipt, err := w.waitForReceipt(receiptCtx, signed.Hash())
	if err != nil {
		return txHash, &domain.TxFailedError{Hash: txHash, Reason: fmt.Sprintf("confirmation timed out: %v", err)}
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return txHash, &domain.TxFailedError{Hash: txHash, Reason: "reverted on-chain"}
	}
	return txHash, nil
}

// callERC20 does a read-only call and unpacks the single uint/bool output.
func (w *Wallet) callERC20(ctx context.Context, token common.Address, method string, args ...any) (*big.Int, error) {
	callData, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return nil, err
	}
	vals, err := erc20ABI.Unpack(method, out)
	if err != nil || len(vals) == 0 {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	v, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type %T", method, vals[0])
	}
	return v, nil
}

// tokenDecimals resolves and caches a token's decimals() value.
func (w *Wallet) tokenDecimals(ctx context.Context, token common.Address) (int32, error) {
	w.mu.RLock()
	d, ok := w.decimalsByToken[token]
	w.mu.RUnlock()
	if ok {
		return d, nil
	}

	callData, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}
	out, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: callData}, nil)
	if err != nil {
		return 0, fmt.Errorf("decimals %s: %w", token.Hex(), err)
	}
	vals, err := erc20ABI.Unpack("decimals", out)
	if err != nil || len(vals) == 0 {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	d = int32(vals[0].(uint8))

	w.mu.Lock()
	w.decimalsByToken[token] = d
	w.mu.Unlock()
	return d, nil
}

func (w *Wallet) toBaseUnits(ctx context.Context, token common.Address, amount decimal.Decimal) (*big.Int, error) {
	d, err := w.tokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}
	return amount.Shift(d).Truncate(0).BigInt(), nil
}

func (w *Wallet) fromBaseUnits(ctx context.Context, token common.Address, raw *big.Int) (decimal.Decimal, error) {
	d, err := w.tokenDecimals(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(raw, 0).Shift(-d), nil
}

// gasPrice returns the suggested gas price with a 10% inclusion buffer,
// cached for gasPriceUpdateInterval to avoid hammering the RPC.
func (w *Wallet) gasPrice(ctx context.Context) (*big.Int, error) {
	w.mu.RLock()
	cached := w.cachedGasWei
	updatedAt := w.gasUpdatedAt
	w.mu.RUnlock()

	if cached != nil && time.Since(updatedAt) < gasPriceUpdateInterval {
		return cached, nil
	}

	price, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		if cached != nil {
			return cached, nil
		}
		return big.NewInt(gasPriceFallbackWei), nil
	}

	buffered := new(big.Int).Mul(price, big.NewInt(11))
	buffered.Div(buffered, big.NewInt(10))

	w.mu.Lock()
	w.cachedGasWei = buffered
	w.gasUpdatedAt = time.Now()
	w.mu.Unlock()
	return buffered, nil
}

// waitForReceipt polls until the transaction is mined or ctx expires.
func (w *Wallet) waitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := w.client.TransactionReceipt(ctx, txHash)
			if err != nil {
				continue // not yet mined
			}
			return receipt, nil
		}
	}
}
