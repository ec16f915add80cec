package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/averykip/invadersync/internal/model"
)

func (s *Store) FindActiveBan(ctx context.Context, username string, now time.Time) (*model.BanRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, banned_by, ban_reason, ban_duration_minutes,
		        ban_start, ban_end, is_permanent, is_active
		 FROM user_bans
		 WHERE username = $1
		   AND is_active = TRUE
		   AND (ban_end IS NULL OR ban_end > $2)
		 ORDER BY ban_start DESC
		 LIMIT 1`,
		username, now,
	)

	var ban model.BanRecord
	var reason sql.NullString
	var duration sql.NullInt64
	var banEnd sql.NullTime

	err := row.Scan(&ban.ID, &ban.Username, &ban.BannedBy, &reason, &duration,
		&ban.BanStart, &banEnd, &ban.IsPermanent, &ban.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrBanNotFound
		}
		return nil, fmt.Errorf("querying active ban: %w", err)
	}

	ban.Reason = reason.String
	if duration.Valid {
		minutes := int(duration.Int64)
		ban.DurationMinutes = &minutes
	}
	if banEnd.Valid {
		end := banEnd.Time
		ban.BanEnd = &end
	}

	return &ban, nil
}

func (s *Store) InsertBan(ctx context.Context, ban *model.BanRecord) error {
	var duration any
	if ban.DurationMinutes != nil {
		duration = *ban.DurationMinutes
	}
	var banEnd any
	if ban.BanEnd != nil {
		banEnd = *ban.BanEnd
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO user_bans (username, banned_by, ban_reason, ban_duration_minutes,
		                        ban_end, is_permanent, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 RETURNING id, ban_start`,
		ban.Username, ban.BannedBy, ban.Reason, duration, banEnd, ban.IsPermanent,
	).Scan(&ban.ID, &ban.BanStart)
	if err != nil {
		return fmt.Errorf("inserting ban: %w", err)
	}

	ban.IsActive = true
	return nil
}

func (s *Store) DeactivateExpiredBans(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_bans
		 SET is_active = FALSE
		 WHERE is_active = TRUE
		   AND is_permanent = FALSE
		   AND ban_end IS NOT NULL
		   AND ban_end <= $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivating expired bans: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) RecordLoginAttempt(ctx context.Context, attempt *model.LoginAttempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_logs (username, is_admin, ip, attempted_at)
		 VALUES ($1, $2, $3, $4)`,
		attempt.Username, attempt.IsAdmin, attempt.IP, attempt.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("recording login attempt: %w", err)
	}
	return nil
}
