package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/academic-record-api/pkg/config"
)

// NewRedis returns a configured Redis client, verifying connectivity before use.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Key builders shared by the summary cache and the advisor feed. The student id
// is a hash tag so one student's keys share a cluster slot and can be touched by
// a single script.
func SummaryKey(userID string) string { return "academic:summary:{" + userID + "}" }

func HistoryKey(userID string) string { return "academic:history:{" + userID + "}" }

func AdvisorContextKey(userID string) string { return "academic:advisor:{" + userID + "}" }

// VersionKey holds the highest record version whose commit invalidated the read models.
func VersionKey(userID string) string { return "academic:version:{" + userID + "}" }

// ReadModelKeys lists the cached read models invalidated whenever a student's record changes.
func ReadModelKeys(userID string) []string {
	return []string{SummaryKey(userID), HistoryKey(userID)}
}
