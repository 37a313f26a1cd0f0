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

// Package store owns the in-memory proposal records. The map is authoritative
// for the process lifetime; disk snapshots are a best-effort convenience and
// never read back. Access goes through the methods here so callers never
// touch the map raw.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/tesoro-finance/tesoro/model"
)

var (
	// ErrNotFound signals an unknown proposal identifier.
	ErrNotFound = errors.New("proposal not found")

	// ErrResultNotReady signals a proposal that exists but has no execution
	// result attached yet. Kept distinct from ErrNotFound so callers can tell
	// the states apart even though the boundary maps both to 404.
	ErrResultNotReady = errors.New("execution result not available for this proposal")

	// ErrExecutionInProgress signals a concurrent approval for the same
	// proposal while one is already executing.
	ErrExecutionInProgress = errors.New("an approval for this proposal is already being executed")
)

// ProposalRecord is one stored proposal document with its bookkeeping.
type ProposalRecord struct {
	ProposalID string
	Document   map[string]interface{}
	CreatedAt  time.Time
}

// Store is the single shared proposal store. Reads of distinct proposals
// never block each other; the one permitted mutation (attaching an execution
// result) takes the write lock. The executing set is the per-proposal guard
// that keeps at most one execution pipeline invocation in flight per id.
type Store struct {
	mu        sync.RWMutex
	proposals map[string]*ProposalRecord
	executing map[string]struct{}
}

func New() *Store {
	return &Store{
		proposals: make(map[string]*ProposalRecord),
		executing: make(map[string]struct{}),
	}
}

// Put stores a freshly created proposal document under its identifier.
func (s *Store) Put(proposalID string, doc map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposalID] = &ProposalRecord{
		ProposalID: proposalID,
		Document:   doc,
		CreatedAt:  time.Now(),
	}
}

// Get returns the stored proposal document. The top-level map is copied so a
// concurrent attach cannot race a reader serializing the document.
func (s *Store) Get(proposalID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.proposals[proposalID]
	if !ok {
		return nil, ErrNotFound
	}
	doc := make(map[string]interface{}, len(rec.Document))
	for k, v := range rec.Document {
		doc[k] = v
	}
	return doc, nil
}

// Has reports whether a proposal exists.
func (s *Store) Has(proposalID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.proposals[proposalID]
	return ok
}

// AttachExecutionResult performs the single permitted proposal mutation. The
// payment list and every other field of the document stay untouched.
func (s *Store) AttachExecutionResult(proposalID string, result map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.proposals[proposalID]
	if !ok {
		return ErrNotFound
	}
	rec.Document[model.KeyExecutionResult] = result
	return nil
}

// GetExecutionResult returns the execution result attached to a proposal.
func (s *Store) GetExecutionResult(proposalID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.proposals[proposalID]
	if !ok {
		return nil, ErrNotFound
	}
	result, ok := rec.Document[model.KeyExecutionResult].(map[string]interface{})
	if !ok {
		return nil, ErrResultNotReady
	}
	return result, nil
}

// AcquireExecution claims the execution guard for a proposal. It fails fast
// with ErrExecutionInProgress when another approval holds the guard, so a
// concurrent double-submission never reaches the execution pipeline twice.
func (s *Store) AcquireExecution(proposalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proposals[proposalID]; !ok {
		return ErrNotFound
	}
	if _, held := s.executing[proposalID]; held {
		return ErrExecutionInProgress
	}
	s.executing[proposalID] = struct{}{}
	return nil
}

// ReleaseExecution releases the guard claimed by AcquireExecution. Safe to
// call for a guard that is not held.
func (s *Store) ReleaseExecution(proposalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.executing, proposalID)
}

// Reset clears all records. Test hook; production code never calls it.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals = make(map[string]*ProposalRecord)
	s.executing = make(map[string]struct{})
}
