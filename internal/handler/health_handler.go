package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-gradebook/internal/config"
	"github.com/noah-isme/gema-gradebook/internal/utils"
)

const dependencyCheckTimeout = 2 * time.Second

// DependencyCheck checks one backing dependency of the gradebook.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// DatabaseCheck pings the gradebook database.
func DatabaseCheck(db *gorm.DB) DependencyCheck {
	return DependencyCheck{Name: "database", Check: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}}
}

// RedisCheck pings the gradebook cache and event bus.
func RedisCheck(client *redis.Client) DependencyCheck {
	return DependencyCheck{Name: "redis", Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// NATSCheck reports whether the event connection is up.
func NATSCheck(conn *nats.Conn) DependencyCheck {
	return DependencyCheck{Name: "nats", Check: func(context.Context) error {
		if !conn.IsConnected() {
			return errors.New(conn.Status().String())
		}
		return nil
	}}
}

// HealthCheck reports service identity and the state of every dependency. Any failing check
// turns the response into a 503 so load balancers stop routing to the node.
func HealthCheck(cfg config.Config, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		response := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(requestContext(c), dependencyCheckTimeout)
			defer cancel()

			response.Dependencies = make(map[string]string, len(checks))
			for _, check := range checks {
				if err := check.Check(ctx); err != nil {
					response.Status = "degraded"
					response.Dependencies[check.Name] = err.Error()
					continue
				}
				response.Dependencies[check.Name] = "ok"
			}
		}

		if response.Status != "ok" {
			return utils.Fail(c, fiber.StatusServiceUnavailable, "service degraded", response)
		}
		return utils.SendSuccess(c, "service healthy", response)
	}
}
