// SPDX-License-Identifier: GPL-3.0-only

package otp

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewStore(mr.Addr(), "")
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, mr
}

func TestCreateAndVerifyChallenge(t *testing.T) {
	store, _ := newTestStore(t)

	code, err := store.CreateChallenge("+14155550123")
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code length = %d, want 6", len(code))
	}

	if err := store.VerifyChallenge("+14155550123", code); err != nil {
		t.Errorf("VerifyChallenge failed for correct code: %v", err)
	}

	// A challenge is single use.
	err = store.VerifyChallenge("+14155550123", code)
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("second verify = %v, want ErrChallengeNotFound", err)
	}
}

func TestResendGuard(t *testing.T) {
	store, mr := newTestStore(t)

	if _, err := store.CreateChallenge("+14155550123"); err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}

	_, err := store.CreateChallenge("+14155550123")
	if !errors.Is(err, ErrResendTooSoon) {
		t.Errorf("immediate resend = %v, want ErrResendTooSoon", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.CreateChallenge("+14155550123"); err != nil {
		t.Errorf("resend after guard window failed: %v", err)
	}
}

func TestWrongCodeCountsAttempts(t *testing.T) {
	store, _ := newTestStore(t)

	code, err := store.CreateChallenge("+14155550123")
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		err := store.VerifyChallenge("+14155550123", "000000")
		if !errors.Is(err, ErrCodeInvalid) {
			t.Fatalf("attempt %d = %v, want ErrCodeInvalid", i+1, err)
		}
	}

	// Fifth wrong attempt destroys the challenge.
	err = store.VerifyChallenge("+14155550123", "000000")
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("fifth attempt = %v, want ErrTooManyAttempts", err)
	}

	// Even the correct code no longer works.
	err = store.VerifyChallenge("+14155550123", code)
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("verify after exhaustion = %v, want ErrChallengeNotFound", err)
	}
}

func TestExpiredChallenge(t *testing.T) {
	store, mr := newTestStore(t)

	code, err := store.CreateChallenge("+14155550123")
	if err != nil {
		t.Fatalf("CreateChallenge failed: %v", err)
	}

	mr.FastForward(6 * time.Minute)
	err = store.VerifyChallenge("+14155550123", code)
	if !errors.Is(err, ErrChallengeNotFound) && !errors.Is(err, ErrCodeExpired) {
		t.Errorf("verify after expiry = %v, want expired or missing", err)
	}
}

func TestUnknownPhone(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.VerifyChallenge("+19995550000", "123456")
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("verify without challenge = %v, want ErrChallengeNotFound", err)
	}
}
