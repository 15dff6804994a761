package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartResetTokenCleaner clears expired password reset tokens every interval
// until ctx is cancelled. A non-positive interval disables the cleaner.
func StartResetTokenCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		log.Error("reset token cleaner disabled", zap.Duration("interval", interval))
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := db.ExecContext(ctx, `
                    UPDATE users
                       SET reset_token = NULL, reset_token_expiry = NULL
                     WHERE reset_token IS NOT NULL
                       AND reset_token_expiry < $1
                `, time.Now())
				if err != nil {
					log.Error("failed to clear expired reset tokens", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleared expired reset tokens", zap.Int64("cleared", rows))
				}
			}
		}
	}()
}
