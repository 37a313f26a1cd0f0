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

// Package tesoro orchestrates the treasury payment workflow: a submitted
// spreadsheet becomes a payment proposal, a reviewer's approval becomes
// executed payments, and both artifacts stay retrievable for audit. The
// in-memory store is authoritative; disk snapshots are best-effort copies.
package tesoro

import (
	"go.opentelemetry.io/otel"

	"github.com/tesoro-finance/tesoro/pipeline"
	"github.com/tesoro-finance/tesoro/store"
)

var tracer = otel.Tracer("tesoro.workflow")

// Tesoro is the workflow orchestrator. All boundary surfaces go through it;
// handlers never touch the store or the pipelines directly.
type Tesoro struct {
	store      *store.Store
	snapshots  *store.Snapshots
	proposals  pipeline.ProposalPipeline
	executions pipeline.ExecutionPipeline
}

func NewTesoro(st *store.Store, snaps *store.Snapshots, proposals pipeline.ProposalPipeline, executions pipeline.ExecutionPipeline) *Tesoro {
	return &Tesoro{
		store:      st,
		snapshots:  snaps,
		proposals:  proposals,
		executions: executions,
	}
}

// Store exposes the underlying proposal store. Test hook.
func (t *Tesoro) Store() *store.Store {
	return t.store
}
