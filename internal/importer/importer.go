// Package importer provides CSV and Excel import functionality for part lists.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/barcut/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Parts    []model.Part
	Errors   []string
	Warnings []string
}

// OK reports whether the import produced parts without errors.
func (r ImportResult) OK() bool {
	return len(r.Errors) == 0 && len(r.Parts) > 0
}

// ColumnMapping maps semantic column roles to their indices in the data.
// A negative index means the column is absent.
type ColumnMapping struct {
	Name   int
	Length int
	Demand int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":   {"name", "label", "part", "part name", "part id", "part_id", "description", "desc", "piece", "item"},
	"length": {"length", "len", "l", "length (mm)", "length_mm", "length mm", "size", "mm"},
	"demand": {"demand", "quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a positional
// mapping and false if no header was found. A two-column row whose first cell
// is numeric maps to length and demand without a name.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Name: -1, Length: -1, Demand: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "name":
					if mapping.Name == -1 {
						mapping.Name = i
					}
				case "length":
					if mapping.Length == -1 {
						mapping.Length = i
					}
				case "demand":
					if mapping.Demand == -1 {
						mapping.Demand = i
					}
				}
			}
		}
	}

	if isHeader {
		return mapping, true
	}
	if len(row) == 2 {
		if _, err := parseNumber(getCell(row, 0)); err == nil {
			return ColumnMapping{Name: -1, Length: 0, Demand: 1}, false
		}
	}
	return ColumnMapping{Name: 0, Length: 1, Demand: 2}, false
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts both "1234.5" and the decimal comma form "1234,5".
func parseNumber(s string) (float64, error) {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// parseRow extracts a Part from a row using the given column mapping.
// Returns the part and any error message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (model.Part, string) {
	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return model.Part{}, fmt.Sprintf("%s: Missing length value", rowLabel)
	}
	length, err := parseNumber(lengthStr)
	if err != nil {
		return model.Part{}, fmt.Sprintf("%s: Invalid length '%s'", rowLabel, lengthStr)
	}

	demandStr := getCell(row, mapping.Demand)
	if demandStr == "" {
		return model.Part{}, fmt.Sprintf("%s: Missing demand value", rowLabel)
	}
	demandF, err := parseNumber(demandStr)
	if err != nil || demandF != float64(int(demandF)) {
		return model.Part{}, fmt.Sprintf("%s: Invalid demand '%s'", rowLabel, demandStr)
	}
	demand := int(demandF)

	if length <= 0 || demand <= 0 {
		return model.Part{}, fmt.Sprintf("%s: Length and demand must be positive", rowLabel)
	}

	return model.NewPart(getCell(row, mapping.Name), length, demand), ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports parts from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open file: %v", err)}}
	}
	return ImportCSVData(data)
}

// ImportCSVData imports parts from CSV content, detecting the delimiter.
func ImportCSVData(data []byte) ImportResult {
	result := ImportResult{}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports parts from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil)
}

// ImportExcel imports parts from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()
	return importWorkbook(f)
}

// ImportExcelFromReader imports parts from Excel content.
func ImportExcelFromReader(r io.Reader) ImportResult {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot open Excel file: %v", err)}}
	}
	defer f.Close()
	return importWorkbook(f)
}

func importWorkbook(f *excelize.File) ImportResult {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{Errors: []string{"Excel file has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read Excel data: %v", err)}}
	}
	if len(rows) == 0 {
		return ImportResult{Errors: []string{"Sheet is empty"}}
	}

	return importFromRows(rows, "Row", nil)
}

// ImportFile picks the CSV or Excel importer by file extension.
func ImportFile(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, parses each row and merges repeated parts.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Demand == -1 {
			missing = append(missing, "Demand")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if _, err := parseNumber(getCell(rows[0], mapping.Length)); err != nil {
		// Unrecognised header: skip it and keep the positional mapping.
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	index := make(map[string]int)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		part, errMsg := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}

		if j, ok := index[part.Name]; ok {
			existing := &result.Parts[j]
			if existing.Length != part.Length {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: Part '%s' already listed with length %g", rowLabel, part.Name, existing.Length))
				continue
			}
			existing.Demand += part.Demand
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Merged repeated part '%s'", rowLabel, part.Name))
			continue
		}
		index[part.Name] = len(result.Parts)
		result.Parts = append(result.Parts, part)
	}

	return result
}
