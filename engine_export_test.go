package goBanking

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/goBanking/export"
)

func TestExportTransactionsCSV(t *testing.T) {
	server := httptest.NewServer(exchangeHandler(t))
	defer server.Close()

	engine, _ := newTestEngine(t, server, nil)

	result := &TransactionResult{
		Items: []map[string]any{
			{"entry_reference": "tx-1", "amount": map[string]any{"value": "12.50", "currency": "EUR"}},
			{"entry_reference": "tx-2"},
		},
		Count:    2,
		DateFrom: "2025-01-01",
		DateTo:   "2025-02-01",
	}

	var gotName string
	var gotData []byte
	sink := export.SinkFunc(func(filename string, data []byte) error {
		gotName = filename
		gotData = data
		return nil
	})

	name, err := engine.ExportTransactionsCSV(context.Background(), result, sink, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "transactions_2025-01-01_2025-02-01.csv" {
		t.Fatalf("generated filename = %q", name)
	}
	if gotName != name {
		t.Fatalf("sink filename = %q, want %q", gotName, name)
	}

	lines := strings.Split(strings.TrimRight(string(gotData), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header plus 2 rows:\n%s", len(lines), gotData)
	}
	if lines[0] != "amount.currency,amount.value,entry_reference" {
		t.Fatalf("header = %q", lines[0])
	}
	if v := engine.MetricsSnapshot().Counters[MetricExports]; v != 1 {
		t.Fatalf("export counter = %d, want 1", v)
	}
}

func TestExportTransactionsCSVFilenames(t *testing.T) {
	from := &TransactionResult{DateFrom: "2025-01-01"}
	if got := exportFilename(from); got != "transactions_2025-01-01.csv" {
		t.Fatalf("filename = %q", got)
	}
}

func TestExportTransactionsCSVSinkError(t *testing.T) {
	server := httptest.NewServer(exchangeHandler(t))
	defer server.Close()

	engine, _ := newTestEngine(t, server, nil)

	sinkErr := errors.New("read-only filesystem")
	sink := export.SinkFunc(func(string, []byte) error { return sinkErr })

	_, err := engine.ExportTransactionsCSV(context.Background(), &TransactionResult{}, sink, "out.csv")
	wantErrIs(t, err, sinkErr)
	if v := engine.MetricsSnapshot().Counters[MetricExports]; v != 0 {
		t.Fatalf("export counter = %d, want 0 after a sink failure", v)
	}
}
