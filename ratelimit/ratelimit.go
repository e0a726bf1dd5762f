// SPDX-License-Identifier: GPL-3.0-only

// Package ratelimit provides Redis-backed trailing-window admission control.
// Each route class is an independent window with its own ceiling; window
// state lives in Redis so limits hold across process instances. Redis
// failures fail open: gating availability is preferred over strict
// enforcement during infrastructure degradation.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reachcrm-server/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Route classes registered at startup.
const (
	ClassGlobal        = "global"
	ClassAuthSend      = "auth-send"
	ClassOTPVerify     = "otp-verify"
	ClassChat          = "chat"
	ClassUpload        = "upload"
	ClassContactCreate = "contact-create"
	ClassSearch        = "search"
	ClassPayment       = "payment"
	ClassExport        = "export"
)

var trailingWindowScript = redis.NewScript(`
local cutoff = tonumber(ARGV[1]) - tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", cutoff)
local count = redis.call("ZCARD", KEYS[1])
if count < tonumber(ARGV[3]) then
  redis.call("ZADD", KEYS[1], ARGV[1], ARGV[4])
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  return {1, tonumber(ARGV[3]) - count - 1}
end
return {0, 0}
`)

type Config struct {
	Window time.Duration
	Max    int
}

// DefaultConfigs holds the per-route-class windows and ceilings.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		ClassGlobal:        {Window: 15 * time.Minute, Max: 1000},
		ClassAuthSend:      {Window: 15 * time.Minute, Max: 10},
		ClassOTPVerify:     {Window: 5 * time.Minute, Max: 5},
		ClassChat:          {Window: time.Minute, Max: 20},
		ClassUpload:        {Window: time.Hour, Max: 20},
		ClassContactCreate: {Window: time.Minute, Max: 100},
		ClassSearch:        {Window: time.Minute, Max: 60},
		ClassPayment:       {Window: time.Hour, Max: 10},
		ClassExport:        {Window: time.Hour, Max: 5},
	}
}

// MultiplierFor scales route-class ceilings by subscription plan. Consulted
// at admission time so plan changes take effect without resetting window
// state.
func MultiplierFor(plan models.PlanName) int {
	switch plan {
	case models.BasePlan:
		return 2
	case models.EnterprisePlan:
		return 5
	default:
		return 1
	}
}

type Result struct {
	Allowed   bool
	Remaining int
}

type Limiter struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewLimiter(addr, password, prefix string) (*Limiter, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "reachcrm:ratelimit"
	}
	return &Limiter{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix:  prefix,
		timeout: 2 * time.Second,
	}, nil
}

// Admit purges tokens older than the trailing window, then admits the
// request if the window still has headroom. On Redis errors the request is
// allowed with zero reported headroom.
func (l *Limiter) Admit(class, key string, cfg Config) Result {
	if l == nil {
		return Result{Allowed: true}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, class, key)
	nowMs := time.Now().UTC().UnixMilli()
	member := fmt.Sprintf("%d-%s", nowMs, uuid.NewString())

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	res, err := trailingWindowScript.Run(ctx, l.client,
		[]string{redisKey},
		nowMs, cfg.Window.Milliseconds(), cfg.Max, member,
	).Int64Slice()
	if err != nil || len(res) != 2 {
		return Result{Allowed: true}
	}
	return Result{Allowed: res[0] == 1, Remaining: int(res[1])}
}

// Registry binds one limiter to the route-class table, looked up by name at
// request time.
type Registry struct {
	limiter *Limiter
	configs map[string]Config
}

func NewRegistry(limiter *Limiter, configs map[string]Config) *Registry {
	if configs == nil {
		configs = DefaultConfigs()
	}
	return &Registry{limiter: limiter, configs: configs}
}

// Admit applies the class config scaled by the plan multiplier. Unknown
// classes are admitted so a misregistered route degrades to unlimited
// instead of blocked.
func (r *Registry) Admit(class, key string, multiplier int) Result {
	if r == nil {
		return Result{Allowed: true}
	}
	cfg, ok := r.configs[class]
	if !ok {
		return Result{Allowed: true}
	}
	if multiplier > 1 {
		cfg.Max *= multiplier
	}
	return r.limiter.Admit(class, key, cfg)
}
