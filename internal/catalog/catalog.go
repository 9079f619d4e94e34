// Package catalog resolves (day, step) coordinates to deliverable content
// units from the content sheet.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kpp-all/drip-bot/internal/domain"
	"github.com/kpp-all/drip-bot/internal/store"
)

// Content sheet record fields. One record per (day, step); record order is
// irrelevant.
const (
	fieldDay       = "day"
	fieldStep      = "step"
	fieldMessageID = "msg_id"
)

// Catalog answers content lookups. Course operators edit the sheet by hand,
// so every call reloads it; no indexing, no caching.
type Catalog interface {
	// Resolve returns the unit at (day, step), or domain.ErrRowNotFound
	// when the coordinate has no unit.
	Resolve(ctx context.Context, day, step int) (*domain.ContentUnit, error)
	// DayExists reports whether any unit carries the given day.
	DayExists(ctx context.Context, day int) (bool, error)
}

type catalog struct {
	store store.Client
	sheet string
	log   *slog.Logger
}

// New creates a Catalog over the given content sheet.
func New(storeClient store.Client, sheet string, log *slog.Logger) Catalog {
	if log == nil {
		log = slog.Default()
	}

	return &catalog{
		store: storeClient,
		sheet: sheet,
		log:   log,
	}
}

func (c *catalog) Resolve(ctx context.Context, day, step int) (*domain.ContentUnit, error) {
	records, err := c.store.ReadAllRecords(ctx, c.sheet)
	if err != nil {
		return nil, fmt.Errorf("load content sheet: %w", err)
	}

	for _, record := range records {
		if parseCoordinate(record[fieldDay]) != day || parseCoordinate(record[fieldStep]) != step {
			continue
		}

		messageID := strings.TrimSpace(record[fieldMessageID])
		if messageID == "" {
			c.log.Warn("content unit has no message reference",
				slog.Int("day", day),
				slog.Int("step", step),
			)
			continue
		}

		return &domain.ContentUnit{Day: day, Step: step, MessageID: messageID}, nil
	}

	return nil, domain.ErrRowNotFound
}

func (c *catalog) DayExists(ctx context.Context, day int) (bool, error) {
	records, err := c.store.ReadAllRecords(ctx, c.sheet)
	if err != nil {
		return false, fmt.Errorf("load content sheet: %w", err)
	}

	for _, record := range records {
		if parseCoordinate(record[fieldDay]) == day {
			return true, nil
		}
	}

	return false, nil
}

// parseCoordinate normalizes a day/step cell for value comparison. Cells that
// do not parse as positive integers never match.
func parseCoordinate(cell string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
