package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Zorochan404/inf-chat/internal/realtime"
)

// OnlineStore is the persisted online flag the sweep reconciles.
type OnlineStore interface {
	ListOnlineIDs(ctx context.Context) ([]string, error)
	SetOnline(ctx context.Context, id string, online bool) error
}

// PresenceChecker reports whether a user still holds a live connection.
type PresenceChecker interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// Broadcaster announces status changes to connected clients.
type Broadcaster interface {
	BroadcastExcept(ctx context.Context, except *realtime.Client, event string, payload any) error
}

type Scheduler struct {
	cron     *cron.Cron
	users    OnlineStore
	presence PresenceChecker
	hub      Broadcaster
	spec     string
	log      zerolog.Logger
}

// NewScheduler builds the cron runner. spec uses the seconds-enabled cron
// format, e.g. "0 */1 * * * *".
func NewScheduler(users OnlineStore, presence PresenceChecker, hub Broadcaster, spec string, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:     c,
		users:    users,
		presence: presence,
		hub:      hub,
		spec:     spec,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if s.spec == "" {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runPresenceSweep); err != nil {
		return fmt.Errorf("schedule presence sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) runPresenceSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	flipped, err := s.SweepPresence(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("presence sweep failed")
		return
	}
	if flipped > 0 {
		s.log.Info().Int("count", flipped).Msg("presence sweep marked users offline")
	}
}

// SweepPresence marks users offline whose presence key has expired, e.g.
// after a process died without running disconnect handling. It returns how
// many users were flipped.
func (s *Scheduler) SweepPresence(ctx context.Context) (int, error) {
	ids, err := s.users.ListOnlineIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list online users: %w", err)
	}

	flipped := 0
	for _, id := range ids {
		online, err := s.presence.IsOnline(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("presence lookup failed")
			continue
		}
		if online {
			continue
		}

		if err := s.users.SetOnline(ctx, id, false); err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("mark offline failed")
			continue
		}
		flipped++

		status := realtime.StatusChange{UserID: id, IsOnline: false}
		if err := s.hub.BroadcastExcept(ctx, nil, realtime.EventUserStatusChange, status); err != nil {
			s.log.Warn().Err(err).Str("user_id", id).Msg("offline broadcast failed")
		}
	}
	return flipped, nil
}
