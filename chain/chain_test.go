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

package chain

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesoro-finance/tesoro/config"
)

const (
	validSender    = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	validRecipient = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
)

func simulationBackend() *EthereumBackend {
	return NewEthereumBackend(config.ChainConfig{
		UsdtContract: config.DEFAULT_USDT_CONTRACT,
	})
}

func TestExecutePaymentValidation(t *testing.T) {
	b := simulationBackend()
	ctx := context.Background()

	tests := []struct {
		name   string
		req    PaymentRequest
		reason string
	}{
		{
			name:   "missing recipient",
			req:    PaymentRequest{From: validSender, AmountUsdt: 10, PrivateKey: "pk"},
			reason: ReasonMissingRecipient,
		},
		{
			name:   "missing sender",
			req:    PaymentRequest{To: validRecipient, AmountUsdt: 10, PrivateKey: "pk"},
			reason: ReasonMissingSender,
		},
		{
			name:   "zero amount",
			req:    PaymentRequest{From: validSender, To: validRecipient, AmountUsdt: 0, PrivateKey: "pk"},
			reason: ReasonInvalidAmount,
		},
		{
			name:   "missing private key",
			req:    PaymentRequest{From: validSender, To: validRecipient, AmountUsdt: 10},
			reason: ReasonMissingKey,
		},
		{
			name:   "malformed address",
			req:    PaymentRequest{From: "not-an-address", To: validRecipient, AmountUsdt: 10, PrivateKey: "pk"},
			reason: ReasonInvalidAddress,
		},
		{
			name:   "below minimum",
			req:    PaymentRequest{From: validSender, To: validRecipient, AmountUsdt: 0.05, PrivateKey: "pk"},
			reason: ReasonAmountTooLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := b.ExecutePayment(ctx, tt.req)
			assert.Equal(t, "FAILED", outcome.Status)
			assert.Equal(t, tt.reason, outcome.Reason)
			assert.False(t, outcome.Succeeded())
			assert.Empty(t, outcome.TransactionID)
		})
	}
}

func TestExecutePaymentSuccess(t *testing.T) {
	b := simulationBackend()
	b.successRate = 1.0

	outcome := b.ExecutePayment(context.Background(), PaymentRequest{
		PaymentID:  "PAY-001",
		From:       validSender,
		To:         validRecipient,
		AmountUsdt: 1500.50,
		PrivateKey: "pk",
	})

	require.True(t, outcome.Succeeded())
	assert.Equal(t, "PAY-001", outcome.PaymentID)
	assert.Regexp(t, regexp.MustCompile(`^TX[A-Z0-9]{8}$`), outcome.TransactionID)
	assert.Equal(t, 1500.50, outcome.Amount)
	assert.NotEmpty(t, outcome.EstimatedCompletion)
}

func TestExecutePaymentSimulatedFailure(t *testing.T) {
	b := simulationBackend()
	b.successRate = 0.0

	outcome := b.ExecutePayment(context.Background(), PaymentRequest{
		PaymentID:  "PAY-002",
		From:       validSender,
		To:         validRecipient,
		AmountUsdt: 25,
		PrivateKey: "pk",
	})

	require.False(t, outcome.Succeeded())
	assert.Contains(t, simFailureReasons, outcome.Reason)
}

func TestCheckBalanceSimulation(t *testing.T) {
	b := simulationBackend()

	info, err := b.CheckBalance(context.Background(), validSender)
	require.NoError(t, err)
	assert.Equal(t, validSender, info.Address)
	assert.Greater(t, info.EthBalance, 0.0)
	assert.Greater(t, info.UsdtBalance, 0.0)
	assert.InDelta(t, info.EthBalance*3500, info.EthUsdValue, 0.01)

	_, err = b.CheckBalance(context.Background(), "")
	assert.Error(t, err)
}

func TestEstimateFeeSimulation(t *testing.T) {
	b := simulationBackend()

	fee, err := b.EstimateFee(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(MaxUsdtGas), fee.GasLimit)
	assert.InDelta(t, fee.GasPriceGwei*GasPriceBuffer, fee.AdjustedGasPriceGwei, 0.0001)
	assert.Greater(t, fee.CostEth, 0.0)
}

func TestValidateAddress(t *testing.T) {
	b := simulationBackend()
	assert.True(t, b.ValidateAddress(validSender))
	assert.False(t, b.ValidateAddress("0x123"))
	assert.False(t, b.ValidateAddress("not-an-address"))
	assert.False(t, b.ValidateAddress(""))
}

func TestCheckStatus(t *testing.T) {
	b := simulationBackend()

	info, err := b.CheckStatus(context.Background(), "TXABCD1234")
	require.NoError(t, err)
	assert.Equal(t, "TXABCD1234", info.TransactionID)
	assert.NotEmpty(t, info.Status)

	_, err = b.CheckStatus(context.Background(), "")
	assert.Error(t, err)
}
