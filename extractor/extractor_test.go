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

package extractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, cells map[string]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for ref, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", ref, value))
	}
	path := filepath.Join(t.TempDir(), "payments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseWorkbook(t *testing.T) {
	path := writeWorkbook(t, map[string]interface{}{
		"A1": "payment_id", "B1": "recipient_wallet", "C1": "amount",
		"A2": "PAY-001", "B2": "0xabc", "C2": 1500.50,
		"A3": "PAY-002", "B3": "0xdef", "C3": 250,
	})

	result, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Sheet1"}, result.Sheets)
	assert.True(t, result.Metadata.Success)
	assert.Equal(t, 1, result.Metadata.TotalSheets)

	sheet := result.Data["Sheet1"]
	require.NotNil(t, sheet)
	assert.Equal(t, []string{"payment_id", "recipient_wallet", "amount"}, sheet.Columns)
	assert.Equal(t, 2, sheet.Rows)
	assert.Equal(t, []string{"amount"}, sheet.NumericColumns)
	require.Len(t, sheet.Records, 2)
	assert.Equal(t, "PAY-001", sheet.Records[0]["payment_id"])
	assert.Equal(t, 1500.50, sheet.Records[0]["amount"])

	stats := result.Summary["Sheet1"]["amount"]
	assert.Equal(t, 1750.50, stats.Sum)
	assert.Equal(t, 875.25, stats.Mean)
	assert.Equal(t, 250.0, stats.Min)
	assert.Equal(t, 1500.50, stats.Max)
	assert.Equal(t, 2, stats.Count)
}

func TestParseSkipsEmptyRows(t *testing.T) {
	path := writeWorkbook(t, map[string]interface{}{
		"A1": "payment_id", "B1": "amount",
		"A2": "PAY-001", "B2": 10,
		// row 3 left entirely empty
		"A4": "PAY-002", "B4": 20,
	})

	result, err := Parse(path)
	require.NoError(t, err)

	sheet := result.Data["Sheet1"]
	assert.Equal(t, 2, sheet.Rows)
	assert.Len(t, sheet.Records, 2)
}

func TestParseMixedColumnNotNumeric(t *testing.T) {
	path := writeWorkbook(t, map[string]interface{}{
		"A1": "reference",
		"A2": "100",
		"A3": "INV-2024",
	})

	result, err := Parse(path)
	require.NoError(t, err)

	sheet := result.Data["Sheet1"]
	assert.Empty(t, sheet.NumericColumns)
	assert.Empty(t, result.Summary["Sheet1"])
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
