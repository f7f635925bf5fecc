// Package importer reads netlists from CSV and Excel files and chip outlines
// from DXF drawings, and merges them into a routing problem.
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

	"github.com/piwi3910/SchemTrace/internal/model"
)

// ImportResult holds the results of an import operation. Errors are rows or
// files that were rejected; Warnings are rows that were accepted with a
// caveat.
type ImportResult struct {
	NetConnections    []model.NetConnection
	DirectConnections []model.DirectConnection
	Chips             []model.Chip
	Errors            []string
	Warnings          []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
// Pins may span several columns.
type ColumnMapping struct {
	Net        int
	Pins       []int
	Kind       int
	LabelWidth int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"net":   {"net", "net name", "netid", "net id", "signal", "name"},
	"pin":   {"pin", "pins", "pin id", "pinid", "pad", "terminal", "node"},
	"kind":  {"kind", "type", "connection", "connection type"},
	"width": {"label width", "labelwidth", "net label width", "width"},
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
		// Netlist rows vary in width, so consistency counts less than the
		// column count itself.
		weighted := score*2 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// roleOf returns the canonical role of a header cell, or "".
func roleOf(cell string) string {
	normalized := strings.ToLower(strings.TrimSpace(cell))
	for role, aliases := range headerAliases {
		for _, alias := range aliases {
			if normalized == alias {
				return role
			}
		}
	}
	return ""
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Matching is case-insensitive. Without a recognizable header the mapping
// is positional: the net in the first column and pins in every other one.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Net: -1, Kind: -1, LabelWidth: -1}

	isHeader := false
	for i, cell := range row {
		switch roleOf(cell) {
		case "net":
			isHeader = true
			if mapping.Net == -1 {
				mapping.Net = i
			}
		case "pin":
			isHeader = true
			mapping.Pins = append(mapping.Pins, i)
		case "kind":
			isHeader = true
			if mapping.Kind == -1 {
				mapping.Kind = i
			}
		case "width":
			isHeader = true
			if mapping.LabelWidth == -1 {
				mapping.LabelWidth = i
			}
		}
	}

	if !isHeader {
		pins := make([]int, 0, len(row))
		for i := 1; i < len(row); i++ {
			pins = append(pins, i)
		}
		return ColumnMapping{Net: 0, Pins: pins, Kind: -1, LabelWidth: -1}, false
	}

	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// netRow is one parsed netlist row.
type netRow struct {
	net    string
	pins   []string
	direct bool
	width  float64
}

// parseRow extracts a netlist row using the given column mapping.
// Returns the row, any error message, and any warning message.
func parseRow(row []string, mapping ColumnMapping, rowLabel string) (netRow, string, string) {
	var r netRow
	var warning string

	r.net = getCell(row, mapping.Net)

	cols := mapping.Pins
	if n := len(cols); n > 0 && cols[n-1] > mapping.Kind && cols[n-1] > mapping.LabelWidth {
		// Rows may run past the last pin column with additional pins.
		extended := append(make([]int, 0, len(row)), cols...)
		for i := cols[n-1] + 1; i < len(row); i++ {
			extended = append(extended, i)
		}
		cols = extended
	}
	for _, c := range cols {
		r.pins = append(r.pins, strings.Fields(getCell(row, c))...)
	}

	switch kind := strings.ToLower(getCell(row, mapping.Kind)); kind {
	case "", "net":
	case "direct", "wire", "d":
		r.direct = true
	default:
		warning = fmt.Sprintf("%s: Unknown connection type '%s', treating as net", rowLabel, kind)
	}

	if ws := getCell(row, mapping.LabelWidth); ws != "" {
		w, err := strconv.ParseFloat(ws, 64)
		if err != nil || w <= 0 {
			warning = fmt.Sprintf("%s: Invalid label width '%s', ignoring", rowLabel, ws)
		} else {
			r.width = w
		}
	}

	switch {
	case len(r.pins) == 0:
		return netRow{}, fmt.Sprintf("%s: Missing pin", rowLabel), ""
	case r.direct && len(r.pins) != 2:
		return netRow{}, fmt.Sprintf("%s: Direct connection needs exactly 2 pins, got %d", rowLabel, len(r.pins)), ""
	case !r.direct && r.net == "":
		return netRow{}, fmt.Sprintf("%s: Missing net name", rowLabel), ""
	}
	return r, "", warning
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

// ImportCSV imports a netlist from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	var warnings []string
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", warnings)
}

// ImportCSVFromReader imports a netlist from a CSV reader with a known delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	records, err := readCSV(reader, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	if len(records) == 0 {
		return ImportResult{Errors: []string{"File is empty"}}
	}
	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// ImportExcel imports a netlist from the first sheet of an Excel file.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for CSV and Excel data. Rows of
// the same net are merged into one connection in first-seen order.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{Warnings: initialWarnings}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
		if len(mapping.Pins) == 0 {
			result.Errors = append(result.Errors, "Required columns not found in header: Pin")
			return result
		}
	}

	netIndex := map[string]int{}
	seen := map[string]map[string]bool{}
	pinNet := map[string]string{}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		r, errMsg, warning := parseRow(row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}

		if r.direct {
			result.DirectConnections = append(result.DirectConnections, model.DirectConnection{
				PinIDs: [2]string{r.pins[0], r.pins[1]},
				NetID:  r.net,
			})
			continue
		}

		idx, ok := netIndex[r.net]
		if !ok {
			idx = len(result.NetConnections)
			netIndex[r.net] = idx
			seen[r.net] = map[string]bool{}
			result.NetConnections = append(result.NetConnections, model.NetConnection{NetID: r.net})
		}
		nc := &result.NetConnections[idx]
		if r.width > 0 {
			nc.NetLabelWidth = r.width
		}
		for _, pin := range r.pins {
			if seen[r.net][pin] {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Pin %s listed twice for net %s", rowLabel, pin, r.net))
				continue
			}
			if other, ok := pinNet[pin]; ok && other != r.net {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Pin %s is on nets %s and %s, they will be joined", rowLabel, pin, other, r.net))
			}
			seen[r.net][pin] = true
			pinNet[pin] = r.net
			nc.PinIDs = append(nc.PinIDs, pin)
		}
	}

	if len(result.NetConnections) == 0 && len(result.DirectConnections) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
	}
	return result
}

// MergeInto appends the imported chips and connections to p. Pins that no
// chip of the merged problem owns are returned as warnings; routing would
// reject them.
func MergeInto(p *model.InputProblem, res ImportResult) []string {
	p.Chips = append(p.Chips, res.Chips...)
	p.NetConnections = append(p.NetConnections, res.NetConnections...)
	p.DirectConnections = append(p.DirectConnections, res.DirectConnections...)

	known := map[string]bool{}
	for _, c := range p.Chips {
		for _, pin := range c.Pins {
			known[pin.PinID] = true
		}
	}
	var warnings []string
	reported := map[string]bool{}
	check := func(pin string) {
		if !known[pin] && !reported[pin] {
			reported[pin] = true
			warnings = append(warnings, fmt.Sprintf("Pin %s is not on any chip", pin))
		}
	}
	for _, nc := range res.NetConnections {
		for _, pin := range nc.PinIDs {
			check(pin)
		}
	}
	for _, dc := range res.DirectConnections {
		check(dc.PinIDs[0])
		check(dc.PinIDs[1])
	}
	return warnings
}
