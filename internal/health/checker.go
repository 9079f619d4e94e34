package health

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/telebot.v3"
)

// checkTimeout caps a single probe. The store probe does a real round trip
// to the sheet API, so a hung dependency must not hold /healthz open.
const checkTimeout = 3 * time.Second

const statusOK = "OK"

// Checkable is a component that can report whether it is usable.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// Report maps component name to "OK" or the failure detail.
type Report map[string]string

// Healthy reports whether every component passed.
func (r Report) Healthy() bool {
	for _, state := range r {
		if state != statusOK {
			return false
		}
	}
	return true
}

// Checker probes registered components in parallel.
type Checker struct {
	log    *slog.Logger
	checks map[string]Checkable
}

func NewChecker(log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	return &Checker{
		log:    log,
		checks: make(map[string]Checkable),
	}
}

// AddCheck registers a component. Registration happens during startup
// wiring only; Check assumes the set is frozen afterwards.
func (c *Checker) AddCheck(name string, check Checkable) {
	if name == "" || check == nil {
		return
	}
	c.checks[name] = check
}

// Check probes every registered component and collects the outcomes.
func (c *Checker) Check(ctx context.Context) Report {
	report := make(Report, len(c.checks))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range c.checks {
		wg.Add(1)
		go func(name string, check Checkable) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			state := statusOK
			if err := check.HealthCheck(probeCtx); err != nil {
				state = err.Error()
				c.log.Warn("health check failed",
					slog.String("component", name), slog.Any("error", err))
			}

			mu.Lock()
			report[name] = state
			mu.Unlock()
		}(name, check)
	}

	wg.Wait()
	return report
}

// Pinger is the slice of redis.Client the probe needs.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisChecker probes Redis with PING.
type RedisChecker struct {
	pinger Pinger
}

func NewRedisChecker(pinger Pinger) *RedisChecker {
	return &RedisChecker{pinger: pinger}
}

func (c *RedisChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.pinger == nil {
		return redis.ErrClosed
	}
	return c.pinger.Ping(ctx).Err()
}

// TelegramChecker reports whether the bot session was established. telebot
// resolves Me during construction, so a nil Me means getMe never succeeded.
type TelegramChecker struct {
	bot *telebot.Bot
}

func NewTelegramChecker(bot *telebot.Bot) *TelegramChecker {
	return &TelegramChecker{bot: bot}
}

func (c *TelegramChecker) HealthCheck(ctx context.Context) error {
	if c == nil || c.bot == nil || c.bot.Me == nil {
		return errors.New("telegram session not established")
	}
	return nil
}
