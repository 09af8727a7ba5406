// Package ingestion reads raw transaction and product files into string
// tables. Column naming, typing and validation are the canonicalizer's job;
// this package only deals with file formats.
package ingestion

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when a raw file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// ReducedRowLimit caps the transaction table to the first 6000 users of the
// public dataset when ReadOptions.Reduced is set.
const ReducedRowLimit = 1_571_044

// Candidate file names, probed in order.
var (
	transactionsFileNames = []string{"transactions.csv", "transactions.csv.zip", "transactions.xlsx"}
	productsFileNames     = []string{"products.csv", "products.csv.zip", "products.xlsx"}
)

// RawTable is a parsed file: a header row and string cells, untyped.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// ReadOptions controls how raw files are read.
type ReadOptions struct {
	// MaxRows limits the number of data rows read (0 = unlimited).
	MaxRows int
	// Reduced reads only the first ReducedRowLimit transaction rows.
	Reduced bool
}

// ReadTransactions locates the transactions file in dir and parses it.
func ReadTransactions(dir string, opts ReadOptions) (RawTable, error) {
	path, err := findFile(dir, transactionsFileNames)
	if err != nil {
		return RawTable{}, err
	}
	if opts.Reduced && opts.MaxRows == 0 {
		opts.MaxRows = ReducedRowLimit
	}
	return ReadFile(path, opts)
}

// ReadProducts locates the products file in dir and parses it.
func ReadProducts(dir string) (RawTable, error) {
	path, err := findFile(dir, productsFileNames)
	if err != nil {
		return RawTable{}, err
	}
	return ReadFile(path, ReadOptions{})
}

// ReadFile parses a single raw file by extension (.csv, .zip, .xlsx).
func ReadFile(path string, opts ReadOptions) (RawTable, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(filepath.Base(path), payload, opts)
}

// Parse dispatches on the file name extension.
func Parse(fileName string, payload []byte, opts ReadOptions) (RawTable, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		return parseCSV(payload, opts)
	case ".zip":
		return parseZip(payload, opts)
	case ".xlsx":
		return parseExcel(payload, opts)
	default:
		return RawTable{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func findFile(dir string, names []string) (string, error) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("none of %s found in %q", strings.Join(names, ", "), dir)
}

func parseCSV(payload []byte, opts ReadOptions) (RawTable, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	table := RawTable{Headers: sanitizeHeaders(header)}
	for {
		if opts.MaxRows > 0 && len(table.Rows) >= opts.MaxRows {
			break
		}
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return RawTable{}, fmt.Errorf("failed to read csv: %w", err)
		}
		if len(cleanRow(record)) == 0 {
			continue
		}
		table.Rows = append(table.Rows, padRow(record, len(table.Headers)))
	}
	return table, nil
}

// parseZip expects a zip archive wrapping exactly one csv file.
func parseZip(payload []byte, opts ReadOptions) (RawTable, error) {
	archive, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to open zip: %w", err)
	}
	for _, file := range archive.File {
		if strings.ToLower(filepath.Ext(file.Name)) != ".csv" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return RawTable{}, fmt.Errorf("failed to open %s in zip: %w", file.Name, err)
		}
		inner, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return RawTable{}, fmt.Errorf("failed to read %s in zip: %w", file.Name, err)
		}
		return parseCSV(inner, opts)
	}
	return RawTable{}, errors.New("zip archive contains no csv file")
}

func parseExcel(payload []byte, opts ReadOptions) (RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return RawTable{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return RawTable{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	if len(rows) == 0 {
		return RawTable{}, errors.New("no rows found in file")
	}

	table := RawTable{Headers: sanitizeHeaders(rows[0])}
	for _, row := range rows[1:] {
		if opts.MaxRows > 0 && len(table.Rows) >= opts.MaxRows {
			break
		}
		if len(cleanRow(row)) == 0 {
			continue
		}
		table.Rows = append(table.Rows, padRow(row, len(table.Headers)))
	}
	return table, nil
}

func sanitizeHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, value := range row {
		headers[i] = strings.ToLower(strings.TrimSpace(value))
	}
	return headers
}

func cleanRow(row []string) []string {
	cleaned := make([]string, 0, len(row))
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			cleaned = append(cleaned, value)
		}
	}
	return cleaned
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
