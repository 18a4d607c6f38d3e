package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"spendlog/internal/kv"
	applog "spendlog/internal/log"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the sheet holding key/value rows when none is configured.
const DefaultSheetName = "KV"

// MaxCellChars is the most characters Google Sheets keeps in a single cell.
const MaxCellChars = 50000

// ErrCellTooLarge is returned by Set for values that do not fit in one cell.
var ErrCellTooLarge = errors.New("value exceeds the sheet cell limit")

// Client stores values in a two-column sheet: column A holds the key and
// column B the raw value. Row order carries no meaning.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var (
	_ kv.Store  = (*Client)(nil)
	_ kv.Lister = (*Client)(nil)
)

// Config selects the spreadsheet and credentials. CredentialsJSON takes
// precedence over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New connects to the spreadsheet with service account credentials. Nothing
// is read until the first call.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	creds, err := cfg.credentials()
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	c := &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: cfg.SheetName}
	if c.sheetName == "" {
		c.sheetName = DefaultSheetName
	}
	slog.DebugContext(ctx, "Sheets client ready",
		applog.FieldComponent, applog.ComponentSheets,
		"spreadsheet_id", c.spreadsheetID,
		"sheet", c.sheetName)
	return c, nil
}

func (cfg Config) credentials() ([]byte, error) {
	if cfg.CredentialsJSON != "" {
		return []byte(cfg.CredentialsJSON), nil
	}
	if cfg.CredentialsFile == "" {
		return nil, errors.New("missing service account credentials")
	}
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// Get reads column A:B and returns the value stored next to key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, kv.ErrEmptyKey
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, false, err
	}
	idx := findRow(rows, key)
	if idx < 0 {
		return nil, false, nil
	}
	return []byte(cellValue(rows[idx])), true, nil
}

// Set overwrites the row holding key or appends a new one.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return kv.ErrEmptyKey
	}
	if n := utf8.RuneCount(value); n > MaxCellChars {
		return fmt.Errorf("set %s: %w: %d characters, limit %d", key, ErrCellTooLarge, n, MaxCellChars)
	}
	rows, err := c.readRows(ctx)
	if err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{{key, string(value)}}}

	if idx := findRow(rows, key); idx >= 0 {
		rng := fmt.Sprintf("%s!A%d:B%d", c.sheetName, idx+1, idx+1)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", key, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:B", c.sheetName)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys present in column A, in sheet order.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.readRows(ctx)
	if err != nil {
		return nil, err
	}
	return rowKeys(rows), nil
}

func (c *Client) readRows(ctx context.Context) ([][]any, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:B", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}
