// Package session accumulates per-tick telemetry for one bot run and
// persists the summary on shutdown: always to a local JSON file, optionally
// to Postgres and a Redis stream when those are configured.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// SummaryStore persists the final session summary.
type SummaryStore interface {
	SaveSummary(ctx context.Context, summary domain.SessionSummary) error
}

// TickPublisher pushes live ticks to an external stream.
type TickPublisher interface {
	Append(ctx context.Context, sessionID string, tick domain.TickRecord) error
}

// Recorder implements domain.SessionRecorder. store and stream may be nil;
// the local JSON file is always written.
type Recorder struct {
	id        string
	outputDir string
	store     SummaryStore
	stream    TickPublisher
	logger    *slog.Logger

	mu            sync.Mutex
	start         time.Time
	ticks         []domain.TickRecord
	marketsTraded uint64
}

// NewRecorder starts a session with a fresh id.
func NewRecorder(outputDir string, store SummaryStore, stream TickPublisher, logger *slog.Logger) *Recorder {
	id := uuid.NewString()
	return &Recorder{
		id:        id,
		outputDir: outputDir,
		store:     store,
		stream:    stream,
		logger:    logger.With(slog.String("component", "session"), slog.String("session_id", id)),
		start:     time.Now(),
	}
}

// ID returns the session id.
func (r *Recorder) ID() string { return r.id }

// Record buffers a tick and publishes it to the live stream. Stream failures
// are logged and dropped; telemetry never interrupts trading.
func (r *Recorder) Record(ctx context.Context, tick domain.TickRecord) {
	r.mu.Lock()
	r.ticks = append(r.ticks, tick)
	r.mu.Unlock()

	if r.stream != nil {
		if err := r.stream.Append(ctx, r.id, tick); err != nil {
			r.logger.Warn("tick stream append failed", slog.String("error", err.Error()))
		}
	}
}

// IncrementMarketsTraded counts one more market entered this session.
func (r *Recorder) IncrementMarketsTraded() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.marketsTraded++
}

// Flush assembles the summary and persists it. The JSON file write must
// succeed; the database save is attempted afterward and its failure is
// returned but does not undo the file.
func (r *Recorder) Flush(ctx context.Context, totalPnL, finalCash decimal.Decimal) error {
	r.mu.Lock()
	end := time.Now()
	summary := domain.SessionSummary{
		SessionID:       r.id,
		StartTime:       r.start,
		EndTime:         end,
		DurationSeconds: int64(end.Sub(r.start).Seconds()),
		TotalTicks:      uint64(len(r.ticks)),
		MarketsTraded:   r.marketsTraded,
		TotalPnL:        totalPnL,
		FinalCash:       finalCash,
		Ticks:           append([]domain.TickRecord(nil), r.ticks...),
	}
	r.mu.Unlock()

	path := filepath.Join(r.outputDir, fmt.Sprintf("session_%s.json", r.id))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("session: marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("session: write %s: %w", path, err)
	}

	r.logger.Info("session summary written",
		slog.String("path", path),
		slog.Uint64("ticks", summary.TotalTicks),
		slog.Uint64("markets_traded", summary.MarketsTraded),
		slog.String("total_pnl", totalPnL.String()),
	)

	if r.store != nil {
		if err := r.store.SaveSummary(ctx, summary); err != nil {
			return fmt.Errorf("session: save summary: %w", err)
		}
	}
	return nil
}
