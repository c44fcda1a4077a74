package scanner

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/newthinker/vcpscan/internal/core"
)

func TestWriteCSV(t *testing.T) {
	results := []core.RankedResult{
		{Symbol: "AAPL", VCPScore: 78.5, Institutional: 16.4, MarketStrength: 100, OutperformsSector: true, FinalScore: 56.42},
		{Symbol: "MSFT", VCPScore: 62.25, Institutional: 15, MarketStrength: 100, OutperformsSector: false, FinalScore: 49.4},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}

	if rows[0][0] != "Stock" || rows[0][5] != "Final Confidence Score" {
		t.Errorf("unexpected header: %v", rows[0])
	}

	first := rows[1]
	if first[0] != "AAPL" || first[1] != "78.50" || first[4] != "true" || first[5] != "56.42" {
		t.Errorf("unexpected first row: %v", first)
	}
	second := rows[2]
	if second[0] != "MSFT" || second[4] != "false" {
		t.Errorf("unexpected second row: %v", second)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var sb strings.Builder
	if err := WriteCSV(&sb, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(sb.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}

func TestParseWatchlist(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "ticker header",
			input: "Ticker,Name\naapl,Apple\nmsft,Microsoft\n",
			want:  []string{"AAPL", "MSFT"},
		},
		{
			name:  "tickers header",
			input: "TICKERS\nnvda\n",
			want:  []string{"NVDA"},
		},
		{
			name:  "symbol column not first",
			input: "Name,Ticker\nApple,AAPL\nMicrosoft,MSFT\n",
			want:  []string{"AAPL", "MSFT"},
		},
		{
			name:  "no header falls back to first column",
			input: "AAPL\nMSFT\nNVDA\n",
			want:  []string{"AAPL", "MSFT", "NVDA"},
		},
		{
			name:  "blank cells dropped",
			input: "Ticker\nAAPL\n\n  \nMSFT\n",
			want:  []string{"AAPL", "MSFT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWatchlist(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestParseWatchlistErrors(t *testing.T) {
	if _, err := ParseWatchlist(strings.NewReader("")); err == nil {
		t.Error("expected error on empty input")
	}
	if _, err := ParseWatchlist(strings.NewReader("Ticker\n\n")); err == nil {
		t.Error("expected error when no symbols remain")
	}
}
