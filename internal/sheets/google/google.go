package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"betledger/internal/core"
	"betledger/internal/log"
	ports "betledger/internal/sheets"
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string // base name, the entry year is prefixed
	CredentialsJSON string
	CredentialsFile string
}

// Client appends mirrored entries to a year-prefixed sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
	now           func() time.Time
}

var _ ports.EntryMirror = (*Client)(nil)

// New creates a Sheets client authenticated with a service account. Extra
// options are passed to the Sheets service, which lets tests point it at a
// local server.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Entries"
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID, "sheet", base)
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetBase:     base,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// credentials resolves inline JSON first, then a key file, then
// GOOGLE_APPLICATION_CREDENTIALS.
func credentials(cfg Config) ([]byte, error) {
	if s := strings.TrimSpace(cfg.CredentialsJSON); s != "" {
		return []byte(s), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// MirrorEntry appends one row per call. The sheet is an append-only log;
// the latest row of a (date, user) pair is the current state.
func (c *Client) MirrorEntry(ctx context.Context, e core.FinancialEntry) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet := yearPrefixedName(c.sheetBase, e.Date.Year())
	vr := &gsheet.ValueRange{Values: [][]interface{}{entryRow(e, c.now())}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A:E", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append entry row: %w", err)
	}
	c.logger.DebugContext(ctx, "Mirrored entry", log.FieldUserID, e.UserID, log.FieldDate, e.Date.String(), "sheet", sheet)
	return nil
}

// entryRow is [date, user, profit, withdrawal, synced_at].
func entryRow(e core.FinancialEntry, syncedAt time.Time) []interface{} {
	return []interface{}{
		e.Date.String(),
		e.UserID,
		e.Profit.Fixed(),
		e.Withdrawal.Fixed(),
		syncedAt.UTC().Format(time.RFC3339),
	}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
