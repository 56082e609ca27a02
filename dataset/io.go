package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"loan-eligibility/domain"
)

// Format is a batch file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV, nil
	case ".json":
		return JSON, nil
	}
	return "", fmt.Errorf("unsupported file extension %q, want .csv or .json", filepath.Ext(path))
}

// ReadCSV reads rows from CSV with a header line.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", len(rows)+2, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = rec[i]
		}
		rows = append(rows, row)
	}
}

// ReadJSON reads a JSON array of objects.
func ReadJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return rows, nil
}

// Read reads rows in the given format.
func Read(r io.Reader, f Format) ([]Row, error) {
	switch f {
	case CSV:
		return ReadCSV(r)
	case JSON:
		return ReadJSON(r)
	}
	return nil, fmt.Errorf("unsupported format %q", f)
}

// ReadFile reads rows from a .csv or .json file.
func ReadFile(path string) ([]Row, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Read(file, f)
}

// WriteCSV writes labelled records with a header line.
func WriteCSV(w io.Writer, records []domain.LabelledApplicant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColIncome, ColCreditScore, ColEmployment, ColLoanType, ColLabel}); err != nil {
		return err
	}
	for _, r := range records {
		err := cw.Write([]string{
			strconv.FormatFloat(r.Income, 'f', -1, 64),
			strconv.Itoa(r.CreditScore),
			string(r.EmploymentStatus),
			string(r.LoanType),
			string(r.Label),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes labelled records as an indented JSON array.
func WriteJSON(w io.Writer, records []domain.LabelledApplicant) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// Write writes labelled records in the given format.
func Write(w io.Writer, f Format, records []domain.LabelledApplicant) error {
	switch f {
	case CSV:
		return WriteCSV(w, records)
	case JSON:
		return WriteJSON(w, records)
	}
	return fmt.Errorf("unsupported format %q", f)
}

// WriteFile writes labelled records to a .csv or .json file.
func WriteFile(path string, records []domain.LabelledApplicant) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, f, records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
