package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/V4T54L/syslogfc/internal/domain"
)

// ReplayUseCase drains events spooled while a sink was unreachable.
type ReplayUseCase struct {
	replayer domain.SpoolReplayer
	logger   *slog.Logger
}

// NewReplayUseCase creates a ReplayUseCase.
func NewReplayUseCase(replayer domain.SpoolReplayer, logger *slog.Logger) *ReplayUseCase {
	return &ReplayUseCase{replayer: replayer, logger: logger.With("component", "replay")}
}

// Run replays the spool once and returns the number of delivered events.
func (uc *ReplayUseCase) Run(ctx context.Context) (int, error) {
	n, err := uc.replayer.ReplaySpool(ctx)
	if err != nil {
		uc.logger.Error("spool replay failed", "replayed", n, "error", err)
		return n, fmt.Errorf("failed to replay spool: %w", err)
	}
	uc.logger.Info("spool replayed", "events", n)
	return n, nil
}
