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

// Package extractor parses uploaded payment workbooks into the structured
// document the proposal pipeline reasons over. The first row of each sheet is
// treated as the header; fully empty rows and columns are dropped; a column
// whose every populated cell parses as a number is reported as numeric and
// summarized.
package extractor

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetData is the parsed content of a single worksheet.
type SheetData struct {
	Columns        []string                 `json:"columns"`
	Rows           int                      `json:"rows"`
	NumericColumns []string                 `json:"numeric_columns"`
	Records        []map[string]interface{} `json:"records"`
}

// ColumnStats carries the summary statistics of one numeric column.
type ColumnStats struct {
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Result is the full extraction of a workbook.
type Result struct {
	Sheets   []string                          `json:"sheets"`
	Data     map[string]*SheetData             `json:"data"`
	Summary  map[string]map[string]ColumnStats `json:"summary"`
	Metadata Metadata                          `json:"metadata"`
}

type Metadata struct {
	TotalSheets  int  `json:"total_sheets"`
	ParsedSheets int  `json:"parsed_sheets"`
	Success      bool `json:"success"`
}

// Parse opens the workbook at path and extracts every sheet.
func Parse(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open workbook %s", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	result := &Result{
		Sheets:  sheets,
		Data:    make(map[string]*SheetData),
		Summary: make(map[string]map[string]ColumnStats),
		Metadata: Metadata{
			TotalSheets:  len(sheets),
			ParsedSheets: len(sheets),
			Success:      true,
		},
	}

	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read sheet %s", sheet)
		}
		data, stats := parseSheet(rows)
		result.Data[sheet] = data
		if len(stats) > 0 {
			result.Summary[sheet] = stats
		}
	}
	return result, nil
}

func parseSheet(rows [][]string) (*SheetData, map[string]ColumnStats) {
	data := &SheetData{
		Columns:        []string{},
		NumericColumns: []string{},
		Records:        []map[string]interface{}{},
	}
	if len(rows) == 0 {
		return data, nil
	}

	header := rows[0]
	body := dropEmptyRows(rows[1:])

	// a column is kept when its header or any body cell is non-empty
	keep := make([]int, 0, len(header))
	for col := 0; col < len(header); col++ {
		if strings.TrimSpace(header[col]) != "" || columnPopulated(body, col) {
			keep = append(keep, col)
		}
	}

	for _, col := range keep {
		data.Columns = append(data.Columns, strings.TrimSpace(header[col]))
	}
	data.Rows = len(body)

	type columnAcc struct {
		values  []decimal.Decimal
		numeric bool
	}
	accs := make(map[string]*columnAcc, len(keep))
	for _, name := range data.Columns {
		accs[name] = &columnAcc{numeric: true}
	}

	for _, row := range body {
		record := make(map[string]interface{}, len(keep))
		for i, col := range keep {
			name := data.Columns[i]
			cell := ""
			if col < len(row) {
				cell = strings.TrimSpace(row[col])
			}
			if cell == "" {
				record[name] = nil
				continue
			}
			if d, err := decimal.NewFromString(cell); err == nil {
				v, _ := d.Float64()
				record[name] = v
				accs[name].values = append(accs[name].values, d)
			} else {
				record[name] = cell
				accs[name].numeric = false
			}
		}
		data.Records = append(data.Records, record)
	}

	stats := make(map[string]ColumnStats)
	for _, name := range data.Columns {
		acc := accs[name]
		if !acc.numeric || len(acc.values) == 0 {
			continue
		}
		data.NumericColumns = append(data.NumericColumns, name)
		stats[name] = summarize(acc.values)
	}
	return data, stats
}

func summarize(values []decimal.Decimal) ColumnStats {
	sum := decimal.Zero
	min, max := values[0], values[0]
	for _, v := range values {
		sum = sum.Add(v)
		if v.LessThan(min) {
			min = v
		}
		if v.GreaterThan(max) {
			max = v
		}
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values))))
	sumF, _ := sum.Float64()
	meanF, _ := mean.Float64()
	minF, _ := min.Float64()
	maxF, _ := max.Float64()
	return ColumnStats{
		Sum:   sumF,
		Mean:  meanF,
		Min:   minF,
		Max:   maxF,
		Count: len(values),
	}
}

func dropEmptyRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func columnPopulated(rows [][]string, col int) bool {
	for _, row := range rows {
		if col < len(row) && strings.TrimSpace(row[col]) != "" {
			return true
		}
	}
	return false
}
