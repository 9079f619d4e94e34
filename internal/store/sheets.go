package store

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	resty "github.com/go-resty/resty/v2"

	"github.com/kpp-all/drip-bot/internal/domain"
	errors "github.com/kpp-all/drip-bot/internal/errors"
	"github.com/kpp-all/drip-bot/pkg/config"
	"github.com/kpp-all/drip-bot/pkg/metrics"
)

const sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetsClient implements Client against the Google Sheets values API. Every
// call carries a request-level timeout, runs behind one shared circuit
// breaker, and retries transient failures.
type SheetsClient struct {
	http          *resty.Client
	tokens        *tokenSource
	breaker       *errors.CircuitBreaker
	log           *slog.Logger
	spreadsheetID string
	timeout       time.Duration
}

var _ Client = (*SheetsClient)(nil)

// NewSheetsClient builds a store client from the sheets config section.
func NewSheetsClient(cfg config.SheetsConfig, log *slog.Logger) (*SheetsClient, error) {
	if log == nil {
		log = slog.Default()
	}

	tokens, err := newTokenSource(cfg.CredentialsFile, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("initialize sheets auth: %w", err)
	}

	httpClient := resty.New().
		SetBaseURL(fmt.Sprintf("%s/%s", sheetsBaseURL, cfg.SpreadsheetID)).
		SetTimeout(cfg.RequestTimeout)

	return &SheetsClient{
		http:          httpClient,
		tokens:        tokens,
		breaker:       errors.NewCircuitBreaker("sheets"),
		log:           log,
		spreadsheetID: cfg.SpreadsheetID,
		timeout:       cfg.RequestTimeout,
	}, nil
}

// FindRow scans one column for the first cell equal to value.
func (s *SheetsClient) FindRow(ctx context.Context, sheet string, column int, value string) (int, error) {
	rng := fmt.Sprintf("'%s'!%s:%s", sheet, columnLetter(column), columnLetter(column))

	rows, err := s.fetchValues(ctx, "find_row", rng)
	if err != nil {
		return 0, err
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(cellString(row[0])) == value {
			return i + 1, nil
		}
	}

	return 0, domain.ErrRowNotFound
}

// ReadRow returns the populated cells of one row.
func (s *SheetsClient) ReadRow(ctx context.Context, sheet string, row int) ([]string, error) {
	rng := fmt.Sprintf("'%s'!%d:%d", sheet, row, row)

	rows, err := s.fetchValues(ctx, "read_row", rng)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	cells := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		cells[i] = cellString(v)
	}

	return cells, nil
}

// ReadCell returns a single cell. Empty and missing cells both read as "".
func (s *SheetsClient) ReadCell(ctx context.Context, sheet string, row, column int) (string, error) {
	rng := cellRef(sheet, row, column)

	rows, err := s.fetchValues(ctx, "read_cell", rng)
	if err != nil {
		return "", err
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}

	return cellString(rows[0][0]), nil
}

// WriteCell overwrites a single cell with RAW input semantics.
func (s *SheetsClient) WriteCell(ctx context.Context, sheet string, row, column int, value string) error {
	rng := cellRef(sheet, row, column)
	body := map[string]any{"values": [][]string{{value}}}

	return s.do(ctx, "write_cell", func(callCtx context.Context, token string) error {
		resp, err := s.http.R().
			SetContext(callCtx).
			SetAuthToken(token).
			SetQueryParam("valueInputOption", "RAW").
			SetBody(body).
			Put("/values/" + url.PathEscape(rng))
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("sheets api returned %s: %s", resp.Status(), resp.String())
		}
		return nil
	})
}

// ReadAllRecords reads the whole sheet and maps data rows onto the header
// row. Rows shorter than the header read as empty fields.
func (s *SheetsClient) ReadAllRecords(ctx context.Context, sheet string) ([]map[string]string, error) {
	rows, err := s.fetchValues(ctx, "read_all_records", fmt.Sprintf("'%s'", sheet))
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(cellString(h))
	}

	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			if i < len(row) {
				record[header] = cellString(row[i])
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// HealthCheck verifies that the spreadsheet is reachable with the current
// credentials.
func (s *SheetsClient) HealthCheck(ctx context.Context) error {
	return s.do(ctx, "health_check", func(callCtx context.Context, token string) error {
		resp, err := s.http.R().
			SetContext(callCtx).
			SetAuthToken(token).
			SetQueryParam("fields", "spreadsheetId").
			Get("")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("sheets api returned %s", resp.Status())
		}
		return nil
	})
}

type valueRange struct {
	Values [][]any `json:"values"`
}

func (s *SheetsClient) fetchValues(ctx context.Context, op, rng string) ([][]any, error) {
	var out [][]any

	err := s.do(ctx, op, func(callCtx context.Context, token string) error {
		var vr valueRange
		resp, err := s.http.R().
			SetContext(callCtx).
			SetAuthToken(token).
			SetResult(&vr).
			Get("/values/" + url.PathEscape(rng))
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("sheets api returned %s: %s", resp.Status(), resp.String())
		}

		out = vr.Values
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// do runs one store call with timeout, auth, circuit breaking, retries, and
// metrics. Everything that comes back failed is a store-unavailable error.
func (s *SheetsClient) do(ctx context.Context, op string, fn func(ctx context.Context, token string) error) error {
	start := time.Now()

	err := errors.WithRetry(ctx, func() error {
		return s.breaker.Call(func() error {
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			token, err := s.tokens.Token(callCtx)
			if err != nil {
				return errors.NewStoreUnavailableError(err)
			}

			if err := fn(callCtx, token); err != nil {
				return errors.NewStoreUnavailableError(err)
			}

			return nil
		})
	})

	status := "ok"
	if err != nil {
		status = "error"

		var appErr *errors.AppError
		if !stdErrors.As(err, &appErr) {
			// breaker-open and context errors reach here untyped
			err = errors.NewStoreUnavailableError(err)
		}

		s.log.Error("store request failed",
			slog.String("op", op),
			slog.String("sheet_id", s.spreadsheetID),
			slog.Any("error", err),
		)
	}

	metrics.RecordStoreRequest(op, status, time.Since(start))

	return err
}

// columnLetter converts a 1-indexed column number to its A1 letter form.
func columnLetter(column int) string {
	var b []byte
	for column > 0 {
		column--
		b = append([]byte{byte('A' + column%26)}, b...)
		column /= 26
	}
	return string(b)
}

func cellRef(sheet string, row, column int) string {
	return fmt.Sprintf("'%s'!%s%d", sheet, columnLetter(column), row)
}

func cellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprint(value)
	}
}
