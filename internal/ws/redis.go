package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/drapesim/backend/internal/config"
	"github.com/drapesim/backend/internal/logger"
	"github.com/drapesim/backend/internal/session"
)

var rdbClient *redis.Client
var wsConfig *config.Config

func SetRedisClient(r *redis.Client, cfg *config.Config) {
	rdbClient = r
	wsConfig = cfg
}

// StartWindEventSubscriber subscribes to the wind_events channel and
// rebroadcasts events published by other server instances to local rooms.
func StartWindEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		logger.Sugar.Info("redis client not set; wind event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "wind_events")
	ch := pubsub.Channel()
	go func() {
		logger.Sugar.Info("wind_events subscriber started")
		for msg := range ch {
			var payload map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				logger.Sugar.Warnw("invalid wind event payload", "err", err)
				continue
			}

			// Our own publishes already reached the local room via the sink.
			if origin, _ := payload["origin"].(string); origin == session.InstanceID() {
				continue
			}

			typeStr, _ := payload["type"].(string)
			token, _ := payload["token"].(string)
			if typeStr != "wind_state" || token == "" {
				logger.Sugar.Debugw("unknown wind event", "type", typeStr)
				continue
			}

			ClothHub.BroadcastToSession(token, map[string]interface{}{
				"type":   "wind_state",
				"active": payload["active"],
				"force":  payload["force"],
			})
		}
	}()
}
