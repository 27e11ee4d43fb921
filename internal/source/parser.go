// Package source fetches and decodes transaction lines from the remote
// transactions file.
package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/canasta/internal/model"
)

const (
	// Delimiter separates the fields of a transaction line.
	Delimiter = ";"
	// Quote wraps the status and price fields.
	Quote = '"'

	fieldCount = 6
)

// DefaultStatuses are the transaction states that count toward the index.
var DefaultStatuses = []string{"FINALIZED", "AUTHORIZED"}

// ErrMalformedRecord is returned for lines that cannot be decoded.
var ErrMalformedRecord = errors.New("malformed record")

// StripQuotes removes exactly one leading and one trailing quote from field.
func StripQuotes(field string) (string, error) {
	if len(field) < 2 {
		return "", fmt.Errorf("%w: field %q too short to be quoted", ErrMalformedRecord, field)
	}
	if field[0] != Quote || field[len(field)-1] != Quote {
		return "", fmt.Errorf("%w: field %q is not quoted", ErrMalformedRecord, field)
	}
	return field[1 : len(field)-1], nil
}

// ParseRecord decodes one line into a TransactionRecord. Fields past the
// sixth are ignored.
func ParseRecord(line string) (model.TransactionRecord, error) {
	line = strings.TrimSuffix(line, "\r")

	fields := strings.SplitN(line, Delimiter, fieldCount+1)
	if len(fields) < fieldCount {
		return model.TransactionRecord{}, fmt.Errorf("%w: %d fields, want %d", ErrMalformedRecord, len(fields), fieldCount)
	}
	if fields[0] == "" {
		return model.TransactionRecord{}, fmt.Errorf("%w: empty SKU", ErrMalformedRecord)
	}

	status, err := StripQuotes(fields[5])
	if err != nil {
		return model.TransactionRecord{}, err
	}

	return model.TransactionRecord{
		SKU:      fields[0],
		Name:     fields[1],
		Price:    fields[2],
		Quantity: fields[3],
		Date:     fields[4],
		Status:   status,
	}, nil
}

// FilterByStatus keeps the lines of text whose status is in allowed, in
// input order. Kept lines are written as found, a trailing '\r' included,
// each ended by '\n'. Malformed lines are dropped. Lines have no length
// limit.
func FilterByStatus(text string, allowed []string) string {
	kept, _ := FilterByStatusStats(text, allowed)
	return kept
}

// FilterByStatusStats is FilterByStatus that also reports line counts.
func FilterByStatusStats(text string, allowed []string) (string, FilterStats) {
	var stats FilterStats
	if text == "" {
		return "", stats
	}

	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}

	var b strings.Builder
	b.Grow(len(text))

	for line := range strings.Lines(text) {
		line = strings.TrimSuffix(line, "\n")
		if strings.TrimSuffix(line, "\r") == "" {
			continue
		}
		stats.Lines++

		rec, err := ParseRecord(line)
		if err != nil {
			stats.Malformed++
			continue
		}
		if _, ok := set[rec.Status]; !ok {
			stats.Rejected++
			continue
		}

		stats.Kept++
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String(), stats
}
