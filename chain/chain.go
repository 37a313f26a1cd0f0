/*
Copyright 2025 Tesoro Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package chain provides the USDT payment backend used by the execution
// pipeline. Balance, fee and address lookups use a live Ethereum node when an
// RPC endpoint is configured and fall back to simulation otherwise. Payment
// execution is always simulated; no transaction is ever signed or broadcast.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tesoro-finance/tesoro/config"
)

const (
	// MaxUsdtGas is the gas limit assumed for a USDT transfer.
	MaxUsdtGas = 401000

	// GasPriceBuffer pads the current gas price for USDT transfers.
	GasPriceBuffer = 1.35

	// MinPaymentUsdt is the smallest transfer the backend will attempt.
	MinPaymentUsdt = 0.1

	// MinEthForGas is the ETH balance below which a gas warning is raised.
	MinEthForGas = 0.0005

	// mockEthPriceUSD stands in for a price oracle.
	mockEthPriceUSD = 3500.0

	// simSuccessRate is the fraction of simulated payments that succeed.
	simSuccessRate = 0.98
)

// Payment failure reasons reported in PaymentOutcome.Reason.
const (
	ReasonMissingRecipient = "MISSING_RECIPIENT_WALLET"
	ReasonMissingSender    = "MISSING_SENDER_WALLET"
	ReasonInvalidAmount    = "INVALID_AMOUNT"
	ReasonMissingKey       = "MISSING_PRIVATE_KEY"
	ReasonInvalidAddress   = "INVALID_ADDRESS_FORMAT"
	ReasonAmountTooLow     = "AMOUNT_TOO_LOW: minimum 0.1 USDT"
)

// simulated failure modes drawn when a payment does not succeed
var simFailureReasons = []string{
	"INSUFFICIENT_USDT_BALANCE",
	"INSUFFICIENT_ETH_FOR_GAS",
	"INVALID_RECIPIENT_ADDRESS",
	"NETWORK_TIMEOUT",
}

// BalanceInfo reports the ETH and USDT holdings of a wallet.
type BalanceInfo struct {
	Address       string  `json:"address"`
	EthBalance    float64 `json:"eth_balance"`
	EthUsdValue   float64 `json:"eth_usd_value"`
	UsdtBalance   float64 `json:"usdt_balance"`
	LowGasWarning bool    `json:"low_gas_warning"`
	Timestamp     string  `json:"timestamp"`
}

// FeeEstimate reports the projected cost of one USDT transfer.
type FeeEstimate struct {
	GasPriceGwei         float64 `json:"gas_price_gwei"`
	AdjustedGasPriceGwei float64 `json:"adjusted_gas_price_gwei"`
	GasLimit             uint64  `json:"gas_limit"`
	CostEth              float64 `json:"cost_eth"`
	CostUsd              float64 `json:"cost_usd"`
}

// PaymentOutcome is the terminal record of one attempted payment.
type PaymentOutcome struct {
	PaymentID             string  `json:"payment_id"`
	Status                string  `json:"status"`
	Reason                string  `json:"reason,omitempty"`
	TransactionID         string  `json:"transaction_id,omitempty"`
	From                  string  `json:"from"`
	To                    string  `json:"to"`
	Amount                float64 `json:"amount"`
	ProcessingTimeSeconds int     `json:"processing_time_seconds,omitempty"`
	EstimatedCompletion   string  `json:"estimated_completion,omitempty"`
	Note                  string  `json:"note,omitempty"`
	Timestamp             string  `json:"timestamp"`
}

// Succeeded reports whether the payment outcome is terminal success.
func (p *PaymentOutcome) Succeeded() bool {
	return p.Status == "SUCCESS"
}

// StatusInfo is a simulated transaction status lookup.
type StatusInfo struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Description   string `json:"description"`
	LastUpdated   string `json:"last_updated"`
}

// PaymentRequest carries the parameters of one payment execution.
type PaymentRequest struct {
	PaymentID  string
	From       string
	To         string
	AmountUsdt float64
	PrivateKey string
}

// Backend is the payment rail the execution pipeline talks to.
type Backend interface {
	CheckBalance(ctx context.Context, walletAddress string) (*BalanceInfo, error)
	EstimateFee(ctx context.Context) (*FeeEstimate, error)
	ValidateAddress(address string) bool
	ExecutePayment(ctx context.Context, req PaymentRequest) *PaymentOutcome
	CheckStatus(ctx context.Context, transactionID string) (*StatusInfo, error)
}

// EthereumBackend implements Backend against Ethereum mainnet USDT.
type EthereumBackend struct {
	client       *ethclient.Client
	usdtContract common.Address

	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

// NewEthereumBackend dials the configured RPC endpoint when one is set. Any
// dial failure is logged and the backend degrades to simulation mode rather
// than failing startup.
func NewEthereumBackend(cnf config.ChainConfig) *EthereumBackend {
	b := &EthereumBackend{
		usdtContract: common.HexToAddress(cnf.UsdtContract),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate:  simSuccessRate,
	}
	if cnf.RpcUrl != "" {
		client, err := ethclient.Dial(cnf.RpcUrl)
		if err != nil {
			logrus.Warnf("could not connect to ethereum node, running in simulation mode: %v", err)
		} else {
			logrus.Infof("connected to ethereum node at %s", cnf.RpcUrl)
			b.client = client
		}
	}
	return b
}

// Live reports whether the backend has a node connection.
func (b *EthereumBackend) Live() bool {
	return b.client != nil
}

func (b *EthereumBackend) CheckBalance(ctx context.Context, walletAddress string) (*BalanceInfo, error) {
	if walletAddress == "" {
		return nil, errors.New("wallet address is required for balance check")
	}

	var ethBalance, usdtBalance float64
	if b.client == nil {
		ethBalance = b.randFloat(0.001, 0.1)
		usdtBalance = b.randFloat(10.0, 1000.0)
	} else {
		if !common.IsHexAddress(walletAddress) {
			return nil, errors.Errorf("invalid wallet address %s", walletAddress)
		}
		address := common.HexToAddress(walletAddress)
		wei, err := b.client.BalanceAt(ctx, address, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch ETH balance")
		}
		ethBalance = weiToEth(wei)

		usdtBalance, err = b.usdtBalanceOf(ctx, address)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch USDT balance")
		}
	}

	return &BalanceInfo{
		Address:       walletAddress,
		EthBalance:    ethBalance,
		EthUsdValue:   ethBalance * mockEthPriceUSD,
		UsdtBalance:   usdtBalance,
		LowGasWarning: ethBalance < MinEthForGas,
		Timestamp:     time.Now().Format(time.RFC3339),
	}, nil
}

func (b *EthereumBackend) EstimateFee(ctx context.Context) (*FeeEstimate, error) {
	var gasPriceGwei float64
	if b.client == nil {
		gasPriceGwei = b.randFloat(20, 50)
	} else {
		price, err := b.client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to fetch gas price")
		}
		gasPriceGwei = weiToGwei(price)
	}

	adjusted := gasPriceGwei * GasPriceBuffer
	costEth := adjusted * MaxUsdtGas / 1e9
	return &FeeEstimate{
		GasPriceGwei:         gasPriceGwei,
		AdjustedGasPriceGwei: adjusted,
		GasLimit:             MaxUsdtGas,
		CostEth:              costEth,
		CostUsd:              costEth * mockEthPriceUSD,
	}, nil
}

func (b *EthereumBackend) ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

// ExecutePayment runs one simulated USDT transfer. It never returns an error;
// every failure mode is reported inside the outcome so callers can aggregate
// mixed results.
func (b *EthereumBackend) ExecutePayment(_ context.Context, req PaymentRequest) *PaymentOutcome {
	now := time.Now()
	fail := func(reason string) *PaymentOutcome {
		return &PaymentOutcome{
			PaymentID: req.PaymentID,
			Status:    "FAILED",
			Reason:    reason,
			From:      req.From,
			To:        req.To,
			Amount:    req.AmountUsdt,
			Timestamp: now.Format(time.RFC3339),
		}
	}

	if req.To == "" {
		return fail(ReasonMissingRecipient)
	}
	if req.From == "" {
		return fail(ReasonMissingSender)
	}
	if req.AmountUsdt <= 0 {
		return fail(ReasonInvalidAmount)
	}
	if req.PrivateKey == "" {
		return fail(ReasonMissingKey)
	}
	if !common.IsHexAddress(req.From) || !common.IsHexAddress(req.To) {
		return fail(ReasonInvalidAddress)
	}
	if req.AmountUsdt < MinPaymentUsdt {
		return fail(ReasonAmountTooLow)
	}

	txID := b.mockTransactionID()
	processing := b.randInt(1, 3)

	if b.randChance() {
		return &PaymentOutcome{
			PaymentID:             req.PaymentID,
			Status:                "SUCCESS",
			TransactionID:         txID,
			From:                  req.From,
			To:                    req.To,
			Amount:                req.AmountUsdt,
			ProcessingTimeSeconds: processing,
			EstimatedCompletion:   now.Add(time.Duration(b.randInt(1, 5)) * time.Minute).Format(time.RFC3339),
			Note:                  "SIMULATION: Transaction would be successful",
			Timestamp:             now.Format(time.RFC3339),
		}
	}

	outcome := fail(simFailureReasons[b.randInt(0, len(simFailureReasons)-1)])
	outcome.ProcessingTimeSeconds = processing
	outcome.Note = "SIMULATION: Transaction would fail"
	return outcome
}

func (b *EthereumBackend) CheckStatus(_ context.Context, transactionID string) (*StatusInfo, error) {
	if transactionID == "" {
		return nil, errors.New("transaction id is required for status checks")
	}
	statuses := []StatusInfo{
		{Status: "PROCESSING", Description: "Transaction is being processed on the Ethereum network"},
		{Status: "CONFIRMED", Description: "Transaction has been confirmed on the blockchain"},
		{Status: "COMPLETED", Description: "USDT transfer has been successfully delivered to recipient"},
		{Status: "PENDING", Description: "Transaction is pending network confirmation"},
		{Status: "FAILED", Description: "Transaction failed due to insufficient gas or network error"},
		{Status: "CANCELLED", Description: "Transaction was cancelled due to low gas price"},
	}
	info := statuses[b.randInt(0, len(statuses)-1)]
	info.TransactionID = transactionID
	info.LastUpdated = time.Now().Format(time.RFC3339)
	return &info, nil
}

// usdtBalanceOf calls balanceOf(address) on the USDT contract and scales the
// result by the token's 6 decimals.
func (b *EthereumBackend) usdtBalanceOf(ctx context.Context, address common.Address) (float64, error) {
	// balanceOf(address) selector followed by the padded argument
	data := append(common.Hex2Bytes("70a08231"), common.LeftPadBytes(address.Bytes(), 32)...)
	raw, err := b.client.CallContract(ctx, ethereum.CallMsg{
		To:   &b.usdtContract,
		Data: data,
	}, nil)
	if err != nil {
		return 0, err
	}
	balance := new(big.Int).SetBytes(raw)
	scaled, _ := new(big.Float).Quo(new(big.Float).SetInt(balance), big.NewFloat(1e6)).Float64()
	return scaled, nil
}

func (b *EthereumBackend) mockTransactionID() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b.mu.Lock()
	defer b.mu.Unlock()
	id := make([]byte, 8)
	for i := range id {
		id[i] = alphabet[b.rng.Intn(len(alphabet))]
	}
	return "TX" + string(id)
}

func (b *EthereumBackend) randFloat(min, max float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return min + b.rng.Float64()*(max-min)
}

func (b *EthereumBackend) randInt(min, max int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return min + b.rng.Intn(max-min+1)
}

func (b *EthereumBackend) randChance() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Float64() < b.successRate
}

func weiToEth(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e18)).Float64()
	return f
}

func weiToGwei(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9)).Float64()
	return f
}

// String renders the outcome the way operators expect to read it in logs.
func (p *PaymentOutcome) String() string {
	if p.Succeeded() {
		return fmt.Sprintf("payment %s: SUCCESS tx=%s amount=%.2f", p.PaymentID, p.TransactionID, p.Amount)
	}
	return fmt.Sprintf("payment %s: FAILED reason=%s amount=%.2f", p.PaymentID, p.Reason, p.Amount)
}
