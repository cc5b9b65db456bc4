// Package sheets defines the spreadsheet mirror the worker writes to.
package sheets

import (
	"context"

	"betledger/internal/core"
)

// EntryMirror copies the current state of a day's entry to a spreadsheet.
type EntryMirror interface {
	MirrorEntry(ctx context.Context, e core.FinancialEntry) error
}
