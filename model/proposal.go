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

package model

import (
	"encoding/json"
	"strconv"
)

// Execution statuses reported by the execution pipeline.
const (
	StatusSuccess        = "SUCCESS"
	StatusPartialSuccess = "PARTIAL_SUCCESS"
	StatusFailure        = "FAILURE"
)

// Per-payment outcome statuses.
const (
	PaymentStatusSuccess = "SUCCESS"
	PaymentStatusFailed  = "FAILED"
)

// Keys of the proposal document. A proposal is stored as the normalized
// pipeline output, so it stays an open document rather than a closed struct:
// the pipeline may attach fields this service never interprets, and retrieval
// must return them verbatim.
const (
	KeyProposalID      = "proposal_id"
	KeyReport          = "report"
	KeyPayments        = "payments"
	KeyExecutionResult = "execution_result"
	KeyExecutionStatus = "execution_status"
	KeyMessage         = "message"
)

// Payment is one proposed transfer instruction inside a proposal.
type Payment struct {
	PaymentID       string  `json:"payment_id"`
	RecipientWallet string  `json:"recipient_wallet"`
	Amount          float64 `json:"amount"`
	Reference       string  `json:"reference"`
}

// PaymentsFromDocument extracts the payment list from a proposal document.
// The document comes from an opaque pipeline, so extraction is tolerant:
// entries that are not objects are skipped, and amounts are accepted as
// numbers, json.Number or numeric strings.
func PaymentsFromDocument(doc map[string]interface{}) []Payment {
	raw, ok := doc[KeyPayments]
	if !ok {
		return nil
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	payments := make([]Payment, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		payments = append(payments, Payment{
			PaymentID:       stringField(m, "payment_id"),
			RecipientWallet: stringField(m, "recipient_wallet"),
			Amount:          floatField(m, "amount"),
			Reference:       stringField(m, "reference"),
		})
	}
	return payments
}

// EnsurePaymentIDs backfills a generated identifier into every payment entry
// that arrived without one, so approvals can always address payments by id.
func EnsurePaymentIDs(doc map[string]interface{}) {
	entries, ok := doc[KeyPayments].([]interface{})
	if !ok {
		return
	}
	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if stringField(m, "payment_id") == "" {
			m["payment_id"] = GenerateUUIDWithSuffix("pay")
		}
	}
}

// PaymentIDs returns the identifiers of the given payments in order.
func PaymentIDs(payments []Payment) []string {
	ids := make([]string, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.PaymentID)
	}
	return ids
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
