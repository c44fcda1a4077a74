package scanner

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/newthinker/vcpscan/internal/core"
)

// csvHeader is the flat tabular export contract consumed downstream
// (TradingView-style watchlist import).
var csvHeader = []string{
	"Stock",
	"VCP Score",
	"Institutional Strength",
	"Market Strength",
	"Sector Outperformance",
	"Final Confidence Score",
}

// WriteCSV serializes ranked results as CSV in ranking order.
func WriteCSV(w io.Writer, results []core.RankedResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.Symbol,
			strconv.FormatFloat(r.VCPScore, 'f', 2, 64),
			strconv.FormatFloat(r.Institutional, 'f', 2, 64),
			strconv.FormatFloat(r.MarketStrength, 'f', 2, 64),
			strconv.FormatBool(r.OutperformsSector),
			strconv.FormatFloat(r.FinalScore, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.Symbol, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ParseWatchlist reads ticker symbols from an uploaded CSV. The symbol
// column is detected case-insensitively as "ticker" or "tickers"; when
// no header matches, the first column is used. Blank cells are dropped
// and symbols are upper-cased.
func ParseWatchlist(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("watchlist is empty")
	}

	col := -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ticker", "tickers":
			col = i
		}
	}

	rows := records
	if col >= 0 {
		rows = records[1:]
	} else {
		col = 0
	}

	var symbols []string
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(row[col]))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("watchlist contains no symbols")
	}
	return symbols, nil
}
