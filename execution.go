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

package tesoro

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/tesoro-finance/tesoro/internal/apierror"
	"github.com/tesoro-finance/tesoro/store"
)

// GetExecutionResult returns the execution result attached to a proposal. A
// proposal that does not exist and a proposal that has not been executed both
// read as not found; the messages differ so callers can tell which happened.
// A successful read schedules cleanup of the proposal's disk artifacts, since
// the workflow is complete once the result has been delivered.
func (t *Tesoro) GetExecutionResult(ctx context.Context, proposalID string) (map[string]interface{}, error) {
	_, span := tracer.Start(ctx, "Fetching payment execution result")
	defer span.End()
	span.SetAttributes(attribute.String("proposal.id", proposalID))

	result, err := t.store.GetExecutionResult(proposalID)
	if err != nil {
		span.RecordError(err)
		if err == store.ErrResultNotReady {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, err.Error(), nil)
		}
		return nil, apierror.NewAPIError(apierror.ErrNotFound, "Proposal not found", nil)
	}

	go t.snapshots.Sweep(proposalID)
	return result, nil
}
