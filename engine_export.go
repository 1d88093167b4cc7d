package goBanking

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goBanking/export"
)

// ExportTransactionsCSV flattens a fetch result to CSV and hands it to the
// sink. An empty filename gets a generated transactions_<from>_<to>.csv
// name; the chosen filename is returned.
//
// ExportTransactionsCSV may return an error when flattening or the sink
// write fails.
func (e *Engine) ExportTransactionsCSV(ctx context.Context, result *TransactionResult, sink export.Sink, filename string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	if result == nil {
		return "", errors.New("transaction result is required")
	}
	if sink == nil {
		return "", errors.New("export sink is required")
	}

	data, err := export.ToCSV(result.Items)
	if err != nil {
		return "", err
	}

	if filename == "" {
		filename = exportFilename(result)
	}
	if err := sink.Export(filename, data); err != nil {
		ev := e.audit.event("export.failed", err)
		ev.Metadata = map[string]string{"filename": filename}
		e.audit.emit(ctx, ev)
		return "", err
	}

	e.metrics.Inc(MetricExports)
	ev := e.audit.event("export.written", nil)
	ev.Metadata = map[string]string{
		"filename": filename,
		"rows":     strconv.Itoa(len(result.Items)),
	}
	e.audit.emit(ctx, ev)

	return filename, nil
}

func exportFilename(result *TransactionResult) string {
	if result.DateTo == "" {
		return fmt.Sprintf("transactions_%s.csv", result.DateFrom)
	}
	return fmt.Sprintf("transactions_%s_%s.csv", result.DateFrom, result.DateTo)
}
