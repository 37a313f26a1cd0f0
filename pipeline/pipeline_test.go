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

package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tesoro-finance/tesoro/chain"
	"github.com/tesoro-finance/tesoro/config"
	"github.com/tesoro-finance/tesoro/model"
)

// stubBackend scripts per-payment outcomes by payment id.
type stubBackend struct {
	failures map[string]string
	calls    []chain.PaymentRequest
}

func (s *stubBackend) ExecutePayment(_ context.Context, req chain.PaymentRequest) *chain.PaymentOutcome {
	s.calls = append(s.calls, req)
	if reason, ok := s.failures[req.PaymentID]; ok {
		return &chain.PaymentOutcome{PaymentID: req.PaymentID, Status: "FAILED", Reason: reason}
	}
	return &chain.PaymentOutcome{PaymentID: req.PaymentID, Status: "SUCCESS", TransactionID: "TXTEST0001"}
}

func (s *stubBackend) CheckBalance(context.Context, string) (*chain.BalanceInfo, error) {
	return &chain.BalanceInfo{}, nil
}
func (s *stubBackend) EstimateFee(context.Context) (*chain.FeeEstimate, error) {
	return &chain.FeeEstimate{}, nil
}
func (s *stubBackend) ValidateAddress(string) bool { return true }
func (s *stubBackend) CheckStatus(context.Context, string) (*chain.StatusInfo, error) {
	return &chain.StatusInfo{}, nil
}

func decodeResult(t *testing.T, result *Result) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Raw), &doc))
	return doc
}

func TestExecutionPipelineAllSucceed(t *testing.T) {
	backend := &stubBackend{}
	p := NewChainExecutionPipeline(backend)

	result, err := p.Run(context.Background(), ExecutionContext{
		ProposalID: "prop_1",
		Decision:   model.DecisionApproveAll,
		ApprovedPayments: []model.Payment{
			{PaymentID: "PAY-001", RecipientWallet: "0xabc", Amount: 100},
			{PaymentID: "PAY-002", RecipientWallet: "0xdef", Amount: 200},
		},
		CustodyWallet: "0xsender",
		PrivateKey:    "pk",
	})
	require.NoError(t, err)

	doc := decodeResult(t, result)
	assert.Equal(t, "prop_1", doc[model.KeyProposalID])
	assert.Equal(t, model.StatusSuccess, doc[model.KeyExecutionStatus])
	assert.Len(t, doc["executed_payments"], 2)
	assert.Len(t, doc["failed_payments"], 0)
	assert.NotEmpty(t, doc["execution_timestamp"])
	require.Len(t, backend.calls, 2)
	assert.Equal(t, "0xsender", backend.calls[0].From)
}

func TestExecutionPipelinePartial(t *testing.T) {
	backend := &stubBackend{failures: map[string]string{"PAY-002": "INSUFFICIENT_USDT_BALANCE"}}
	p := NewChainExecutionPipeline(backend)

	result, err := p.Run(context.Background(), ExecutionContext{
		ProposalID: "prop_1",
		Decision:   model.DecisionApproveAll,
		ApprovedPayments: []model.Payment{
			{PaymentID: "PAY-001", Amount: 100},
			{PaymentID: "PAY-002", Amount: 200},
		},
	})
	require.NoError(t, err)

	doc := decodeResult(t, result)
	assert.Equal(t, model.StatusPartialSuccess, doc[model.KeyExecutionStatus])
	failed := doc["failed_payments"].([]interface{})
	require.Len(t, failed, 1)
	assert.Equal(t, "INSUFFICIENT_USDT_BALANCE", failed[0].(map[string]interface{})["reason"])
}

func TestExecutionPipelineAllFail(t *testing.T) {
	backend := &stubBackend{failures: map[string]string{"PAY-001": "NETWORK_TIMEOUT"}}
	p := NewChainExecutionPipeline(backend)

	result, err := p.Run(context.Background(), ExecutionContext{
		ProposalID:       "prop_1",
		ApprovedPayments: []model.Payment{{PaymentID: "PAY-001", Amount: 100}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailure, decodeResult(t, result)[model.KeyExecutionStatus])
}

func TestExecutionPipelineRejection(t *testing.T) {
	backend := &stubBackend{}
	p := NewChainExecutionPipeline(backend)

	result, err := p.Run(context.Background(), ExecutionContext{
		ProposalID:       "prop_1",
		Decision:         model.DecisionRejectAll,
		ApprovedPayments: nil,
	})
	require.NoError(t, err)

	doc := decodeResult(t, result)
	assert.Equal(t, model.StatusSuccess, doc[model.KeyExecutionStatus])
	assert.Len(t, doc["executed_payments"], 0)
	assert.Empty(t, backend.calls)
}

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "recipient_wallet"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "amount"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "0xabc"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 100))
	path := filepath.Join(t.TempDir(), "payments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func completionHandler(t *testing.T, replies []string) http.HandlerFunc {
	var call int
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Less(t, call, len(replies))

		reply := replies[call]
		call++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, reply)
	}
}

func TestProposalPipelineTwoStage(t *testing.T) {
	proposalJSON := `{"proposal_id":"prop_1","report":"ok","payments":[]}`
	srv := httptest.NewServer(completionHandler(t, []string{"risk report", proposalJSON}))
	defer srv.Close()

	cnf := config.PipelineConfig{
		Endpoint:      srv.URL,
		APIKey:        "test-key",
		RiskModel:     "gpt-4o-mini",
		ProposalModel: "gpt-4o-mini",
		TimeoutSec:    5,
	}
	p := NewLLMProposalPipeline(cnf, NewLLMClient(cnf))

	result, err := p.Run(context.Background(), ProposalContext{
		ProposalID:      "prop_1",
		SpreadsheetPath: writeTestWorkbook(t),
		Config: map[string]interface{}{
			"user_id":     "user-1",
			"risk_config": map[string]interface{}{"min_balance_usd": 1000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, proposalJSON, result.Raw)
}

func TestProposalPipelineSpreadsheetFailure(t *testing.T) {
	cnf := config.PipelineConfig{Endpoint: "http://127.0.0.1:0", TimeoutSec: 1}
	p := NewLLMProposalPipeline(cnf, NewLLMClient(cnf))

	_, err := p.Run(context.Background(), ProposalContext{
		ProposalID:      "prop_1",
		SpreadsheetPath: filepath.Join(t.TempDir(), "missing.xlsx"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spreadsheet extraction failed")
}

func TestLLMClientRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"upstream overloaded"}}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"recovered"}}]}`)
	}))
	defer srv.Close()

	client := NewLLMClient(config.PipelineConfig{Endpoint: srv.URL, TimeoutSec: 5})
	content, err := client.Complete(context.Background(), "gpt-4o-mini", 0.1, 100, []ChatMessage{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", content)
	assert.Equal(t, 3, calls)
}

func TestLLMClientPermanentOnBadRequest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"unknown model"}}`)
	}))
	defer srv.Close()

	client := NewLLMClient(config.PipelineConfig{Endpoint: srv.URL, TimeoutSec: 5})
	_, err := client.Complete(context.Background(), "bad-model", 0.1, 100, []ChatMessage{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "unknown model")
}
