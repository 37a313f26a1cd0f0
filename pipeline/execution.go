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
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tesoro-finance/tesoro/chain"
	"github.com/tesoro-finance/tesoro/model"
)

// ChainExecutionPipeline executes approved payments one by one against the
// chain backend and aggregates the outcomes. Individual payment failures are
// folded into the result rather than surfaced as errors; only the inability
// to produce a result at all is an error.
type ChainExecutionPipeline struct {
	backend chain.Backend
}

func NewChainExecutionPipeline(backend chain.Backend) *ChainExecutionPipeline {
	return &ChainExecutionPipeline{backend: backend}
}

func (p *ChainExecutionPipeline) Run(ctx context.Context, ectx ExecutionContext) (*Result, error) {
	executed := make([]map[string]interface{}, 0, len(ectx.ApprovedPayments))
	failed := make([]map[string]interface{}, 0)

	for _, payment := range ectx.ApprovedPayments {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		outcome := p.backend.ExecutePayment(ctx, chain.PaymentRequest{
			PaymentID:  payment.PaymentID,
			From:       ectx.CustodyWallet,
			To:         payment.RecipientWallet,
			AmountUsdt: payment.Amount,
			PrivateKey: ectx.PrivateKey,
		})
		logrus.Info(outcome.String())

		if outcome.Succeeded() {
			executed = append(executed, map[string]interface{}{
				"payment_id":       payment.PaymentID,
				"status":           model.PaymentStatusSuccess,
				"transaction_id":   outcome.TransactionID,
				"recipient_wallet": payment.RecipientWallet,
				"amount":           payment.Amount,
			})
		} else {
			failed = append(failed, map[string]interface{}{
				"payment_id":       payment.PaymentID,
				"status":           model.PaymentStatusFailed,
				"reason":           outcome.Reason,
				"recipient_wallet": payment.RecipientWallet,
				"amount":           payment.Amount,
			})
		}
	}

	result := map[string]interface{}{
		model.KeyProposalID:      ectx.ProposalID,
		model.KeyExecutionStatus: aggregateStatus(len(executed), len(failed)),
		"approval_decision":      ectx.Decision,
		"executed_payments":      executed,
		"failed_payments":        failed,
		"execution_timestamp":    time.Now().Format(time.RFC3339),
	}
	if len(executed) == 0 && len(failed) == 0 {
		result[model.KeyMessage] = "No payments were executed."
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode execution result")
	}
	return &Result{Raw: string(raw)}, nil
}

// aggregateStatus derives the overall status from the per-payment outcomes.
// Executing nothing is a success: a full rejection completes the workflow
// with zero payments.
func aggregateStatus(executed, failed int) string {
	switch {
	case failed == 0:
		return model.StatusSuccess
	case executed > 0:
		return model.StatusPartialSuccess
	default:
		return model.StatusFailure
	}
}
