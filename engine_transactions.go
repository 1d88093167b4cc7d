package goBanking

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MrEthical07/goBanking/transport"
)

// Transactions retrieves the full transaction list for one unlocked
// account, following continuation keys until the API stops returning one
// or the configured page cap is reached.
//
// dateFrom is required (YYYY-MM-DD); dateTo is optional. Date filters are
// sent on the first page only — later pages are addressed by continuation
// key alone, which already binds the original query.
//
// Hitting the page cap is partial success: the result carries everything
// fetched so far with Truncated set. Any page error aborts the whole fetch
// and discards partial data.
func (e *Engine) Transactions(ctx context.Context, uid, dateFrom, dateTo string) (*TransactionResult, error) {
	if e == nil || e.api == nil {
		return nil, ErrEngineNotReady
	}
	if dateFrom == "" {
		return nil, ErrDateFromRequired
	}
	if _, err := e.Account(uid); err != nil {
		return nil, err
	}

	path := "/accounts/" + url.PathEscape(uid) + "/transactions"
	query := url.Values{"date_from": {dateFrom}}
	if dateTo != "" {
		query.Set("date_to", dateTo)
	}

	result := &TransactionResult{DateFrom: dateFrom, DateTo: dateTo}
	maxPages := e.config.API.MaxTransactionPages

	for page := 0; page < maxPages; page++ {
		resp, err := e.api.Do(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			var apiErr *transport.APIError
			if errors.As(err, &apiErr) {
				e.metrics.Inc(MetricAPIError)
			}
			ev := e.audit.event("transactions.fetch_failed", err)
			ev.AccountUID = uid
			e.audit.emit(ctx, ev)
			return nil, err
		}
		e.metrics.Inc(MetricTransactionPages)

		for _, item := range pageItems(resp) {
			if tx, ok := item.(map[string]any); ok {
				result.Items = append(result.Items, tx)
			}
		}

		key, _ := resp["continuation_key"].(string)
		if key == "" {
			break
		}
		if page == maxPages-1 {
			result.Truncated = true
			e.metrics.Inc(MetricPageCapHit)
			break
		}
		query = url.Values{"continuation_key": {key}}
	}

	result.Count = len(result.Items)
	e.metrics.Inc(MetricTransactionFetches)

	ev := e.audit.event("transactions.fetched", nil)
	ev.AccountUID = uid
	ev.Metadata = map[string]string{
		"count":     strconv.Itoa(result.Count),
		"truncated": strconv.FormatBool(result.Truncated),
	}
	e.audit.emit(ctx, ev)

	return result, nil
}

// pageItems pulls the transaction list out of one page response. The API
// has shipped both "transactions" and "items" as the list key.
func pageItems(resp map[string]any) []any {
	for _, key := range []string{"transactions", "items"} {
		if list, ok := resp[key].([]any); ok {
			return list
		}
	}
	return nil
}
