package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/logger"
)

// gustScheduleKey is a Redis sorted set of session tokens scored by the
// unix time of their next ambient gust.
const gustScheduleKey = "gust_schedule"

const gustPollInterval = 2 * time.Second

// StartGustWorker starts a background worker that toggles wind on sessions
// whose scheduled gust time has passed, using a Redis sorted set so that
// only one instance fires each gust.
func StartGustWorker(ctx context.Context, rdb *redis.Client, cfg *config.Config) {
	if rdb == nil || cfg == nil {
		logger.Sugar.Info("redis or config missing; gust worker not started")
		return
	}

	logger.Sugar.Info("gust worker started")
	go func() {
		ticker := time.NewTicker(gustPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Sugar.Info("gust worker stopping")
				return
			case <-ticker.C:
				now := time.Now().Unix()

				members, err := rdb.ZRangeByScore(ctx, gustScheduleKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now)}).Result()
				if err != nil {
					logger.Sugar.Warnw("failed to fetch due gusts", "err", err)
					continue
				}

				for _, token := range members {
					// Claim the member before acting (race-safe across instances).
					removed, _ := rdb.ZRem(ctx, gustScheduleKey, token).Result()
					if removed == 0 {
						continue
					}

					sess, err := Manager.Get(token)
					if err != nil {
						// Session ended; the claim already dropped it from the schedule.
						continue
					}

					sess.Enqueue(Command{Name: CmdToggleWind})
					logger.Sugar.Debugw("ambient gust fired", "token", token)

					Manager.scheduleGust(token)
				}
			}
		}
	}()
}

// scheduleGust books the session's next ambient gust.
func (sm *SessionManager) scheduleGust(token string) {
	if sm.rdb == nil {
		return
	}

	min := sm.config.GustMinIntervalSeconds
	max := sm.config.GustMaxIntervalSeconds
	if max < min {
		max = min
	}
	delay := min
	if max > min {
		delay = min + rand.Intn(max-min+1)
	}

	score := float64(time.Now().Unix() + int64(delay))
	if err := sm.rdb.ZAdd(context.Background(), gustScheduleKey, redis.Z{Score: score, Member: token}).Err(); err != nil {
		logger.Sugar.Warnw("failed to schedule gust", "token", token, "err", err)
	}
}

// unscheduleGust drops a session from the gust schedule.
func (sm *SessionManager) unscheduleGust(token string) {
	if sm.rdb == nil {
		return
	}
	if err := sm.rdb.ZRem(context.Background(), gustScheduleKey, token).Err(); err != nil {
		logger.Sugar.Warnw("failed to unschedule gust", "token", token, "err", err)
	}
}
