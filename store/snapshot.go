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

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Snapshots writes audit copies of proposals and execution results to disk.
// Snapshot writes are best-effort: a full disk or bad permissions must never
// fail the request that triggered the write. The one exception is the
// uploaded spreadsheet, which the proposal pipeline reads back, so its write
// failure is surfaced to the caller.
type Snapshots struct {
	dir string
}

// NewSnapshots ensures the snapshot directory exists and returns the writer.
func NewSnapshots(dir string) (*Snapshots, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Snapshots{dir: dir}, nil
}

func (s *Snapshots) Dir() string {
	return s.dir
}

// SpreadsheetPath returns the on-disk path for a proposal's uploaded workbook.
func (s *Snapshots) SpreadsheetPath(proposalID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("temp_excel_%s.xlsx", proposalID))
}

func (s *Snapshots) proposalPath(proposalID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("proposal_%s.json", proposalID))
}

func (s *Snapshots) executionResultPath(proposalID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("execution_result_%s.json", proposalID))
}

// WriteSpreadsheet persists the uploaded workbook bytes and returns the path
// the pipeline should read. Unlike the JSON snapshots this failure matters.
func (s *Snapshots) WriteSpreadsheet(proposalID string, data []byte) (string, error) {
	path := s.SpreadsheetPath(proposalID)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// WriteProposal snapshots a proposal document. Failures are logged and
// swallowed.
func (s *Snapshots) WriteProposal(proposalID string, doc map[string]interface{}) {
	s.writeJSON(s.proposalPath(proposalID), doc)
}

// WriteExecutionResult snapshots an execution result. Failures are logged and
// swallowed.
func (s *Snapshots) WriteExecutionResult(proposalID string, result map[string]interface{}) {
	s.writeJSON(s.executionResultPath(proposalID), result)
}

func (s *Snapshots) writeJSON(path string, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logrus.Warnf("snapshot marshal failed for %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logrus.Warnf("snapshot write failed for %s: %v", path, err)
	}
}

// Sweep removes the on-disk artifacts of a completed proposal. Every removal
// is best-effort; a missing file is not an error.
func (s *Snapshots) Sweep(proposalID string) {
	for _, path := range []string{
		s.proposalPath(proposalID),
		s.executionResultPath(proposalID),
		s.SpreadsheetPath(proposalID),
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logrus.Warnf("artifact cleanup failed for %s: %v", path, err)
		}
	}
}
