// SPDX-License-Identifier: GPL-3.0-only

// Package otp manages one-time-password challenges keyed by phone number.
// Codes are hashed at rest; challenges expire and cap verification attempts.
package otp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"reachcrm-server/crypto"

	"github.com/redis/go-redis/v9"
)

var (
	ErrResendTooSoon     = errors.New("a verification code was sent recently, please wait before requesting another")
	ErrChallengeNotFound = errors.New("no pending verification for this phone number")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrCodeInvalid       = errors.New("incorrect verification code")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
)

type Store struct {
	client       *redis.Client
	keyPrefix    string
	codeDigits   int
	challengeTTL time.Duration
	resendAfter  time.Duration
	maxAttempts  int
	timeout      time.Duration
}

type challenge struct {
	Phone      string    `json:"phone"`
	CodeHash   string    `json:"code_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
	Attempts   int       `json:"attempts"`
	MaxAttempt int       `json:"max_attempt"`
}

func NewStore(addr, password string) (*Store, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("otp redis addr is required")
	}
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		keyPrefix:    "reachcrm:auth:otp",
		codeDigits:   6,
		challengeTTL: 5 * time.Minute,
		resendAfter:  time.Minute,
		maxAttempts:  5,
		timeout:      2 * time.Second,
	}, nil
}

func (s *Store) challengeKey(phone string) string {
	return s.keyPrefix + ":challenge:" + phone
}

func (s *Store) resendKey(phone string) string {
	return s.keyPrefix + ":resend:" + phone
}

// CreateChallenge mints a fresh code for the phone number and stores its
// hash with the challenge TTL. The plain code is returned once for delivery
// and never persisted.
func (s *Store) CreateChallenge(phone string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ok, err := s.client.SetNX(ctx, s.resendKey(phone), "1", s.resendAfter).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrResendTooSoon
	}

	code, err := crypto.GenerateNumericCode(s.codeDigits)
	if err != nil {
		return "", err
	}
	hash, err := crypto.NewCrypto().HashSecret(code)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(challenge{
		Phone:      phone,
		CodeHash:   hash,
		ExpiresAt:  time.Now().Add(s.challengeTTL),
		Attempts:   0,
		MaxAttempt: s.maxAttempts,
	})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.challengeKey(phone), payload, s.challengeTTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyChallenge checks the code for the phone number, consuming the
// challenge on success. Each wrong attempt is counted; the challenge is
// destroyed once the attempt cap is hit.
func (s *Store) VerifyChallenge(phone, code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	key := s.challengeKey(phone)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrChallengeNotFound
		}
		return err
	}

	var ch challenge
	if err := json.Unmarshal(raw, &ch); err != nil {
		return err
	}
	if time.Now().After(ch.ExpiresAt) {
		s.client.Del(ctx, key)
		return ErrCodeExpired
	}
	if ch.Attempts >= ch.MaxAttempt {
		s.client.Del(ctx, key)
		return ErrTooManyAttempts
	}

	if err := crypto.NewCrypto().VerifySecret(code, ch.CodeHash); err != nil {
		ch.Attempts++
		if ch.Attempts >= ch.MaxAttempt {
			s.client.Del(ctx, key)
			return ErrTooManyAttempts
		}
		if updated, marshalErr := json.Marshal(ch); marshalErr == nil {
			s.client.Set(ctx, key, updated, redis.KeepTTL)
		}
		return ErrCodeInvalid
	}

	s.client.Del(ctx, key)
	return nil
}
