package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// SessionStore persists session summaries and their tick history.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a store backed by the given connection pool.
func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// SaveSummary writes the summary row and all its ticks in one transaction.
// Replaying the same session id replaces nothing: the insert conflicts and
// the transaction fails, which keeps sessions append-only.
func (s *SessionStore) SaveSummary(ctx context.Context, summary domain.SessionSummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin session tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO sessions (
			session_id, start_time, end_time, duration_seconds,
			total_ticks, markets_traded, total_pnl, final_cash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		summary.SessionID, summary.StartTime, summary.EndTime,
		summary.DurationSeconds, summary.TotalTicks, summary.MarketsTraded,
		summary.TotalPnL, summary.FinalCash,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert session %s: %w", summary.SessionID, err)
	}

	if len(summary.Ticks) > 0 {
		batch := &pgx.Batch{}
		const query = `
			INSERT INTO session_ticks (
				session_id, tick_number, ts, market_slug,
				spot_price, strike_price, fair_value, target_buy_price,
				best_bid, best_ask, spread, minutes_remaining, state
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

		for _, t := range summary.Ticks {
			batch.Queue(query,
				summary.SessionID, t.TickNumber, t.Timestamp, t.MarketSlug,
				t.SpotPrice, t.StrikePrice, t.FairValue, t.TargetBuyPrice,
				t.BestBid, t.BestAsk, t.Spread, t.MinutesRemaining, t.State,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := range summary.Ticks {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("postgres: insert tick %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("postgres: close tick batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit session %s: %w", summary.SessionID, err)
	}
	return nil
}

// GetSummary loads a session row without its ticks.
func (s *SessionStore) GetSummary(ctx context.Context, sessionID string) (domain.SessionSummary, error) {
	var sum domain.SessionSummary
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, start_time, end_time, duration_seconds,
		       total_ticks, markets_traded, total_pnl, final_cash
		FROM sessions WHERE session_id = $1`,
		sessionID,
	).Scan(
		&sum.SessionID, &sum.StartTime, &sum.EndTime, &sum.DurationSeconds,
		&sum.TotalTicks, &sum.MarketsTraded, &sum.TotalPnL, &sum.FinalCash,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.SessionSummary{}, fmt.Errorf("postgres: session %s: %w", sessionID, domain.ErrNotFound)
		}
		return domain.SessionSummary{}, fmt.Errorf("postgres: get session %s: %w", sessionID, err)
	}
	return sum, nil
}

// ListRecent returns the most recent session rows, newest first.
func (s *SessionStore) ListRecent(ctx context.Context, limit int) ([]domain.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT session_id, start_time, end_time, duration_seconds,
		       total_ticks, markets_traded, total_pnl, final_cash
		FROM sessions ORDER BY start_time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionSummary
	for rows.Next() {
		var sum domain.SessionSummary
		if err := rows.Scan(
			&sum.SessionID, &sum.StartTime, &sum.EndTime, &sum.DurationSeconds,
			&sum.TotalTicks, &sum.MarketsTraded, &sum.TotalPnL, &sum.FinalCash,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan session: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteBefore removes sessions (and their ticks, via cascade) started
// before the cutoff. Returns the number of sessions deleted.
func (s *SessionStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE start_time < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete sessions before: %w", err)
	}
	return tag.RowsAffected(), nil
}
