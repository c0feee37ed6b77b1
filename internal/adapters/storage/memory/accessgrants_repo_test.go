package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pet-health-records/internal/domain/accessgrants"
	"pet-health-records/internal/domain/otp"
)

func TestCreateConsumingOTP_SingleWinner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	otps := NewOTPRepo()
	if err := otps.Create(ctx, otp.OTP{
		ID:        "otp-1",
		Phone:     "+5491111111111",
		Purpose:   otp.PurposePetAccess,
		ExpiresAt: now.Add(10 * time.Minute),
		CreatedAt: now,
	}); err != nil {
		t.Fatalf("create otp: %v", err)
	}
	grants := NewAccessGrantsRepo(otps)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g := accessgrants.Grant{ID: "g-" + strconv.Itoa(i), PetID: "pet-1", ClinicID: "c-1", Status: accessgrants.StatusActive}
			err := grants.CreateConsumingOTP(ctx, g, "otp-1", now)
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case !errors.Is(err, accessgrants.ErrOTPUnavailable):
				t.Errorf("unexpected err: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one grant, got %d", wins)
	}
	items, _ := grants.ListByPet(ctx, "pet-1")
	if len(items) != 1 {
		t.Fatalf("expected 1 stored grant, got %d", len(items))
	}
}

func TestCreateConsumingOTP_ExpiredOTP(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	otps := NewOTPRepo()
	_ = otps.Create(ctx, otp.OTP{ID: "otp-1", ExpiresAt: now, CreatedAt: now.Add(-10 * time.Minute)})
	grants := NewAccessGrantsRepo(otps)

	err := grants.CreateConsumingOTP(ctx, accessgrants.Grant{ID: "g-1"}, "otp-1", now)
	if !errors.Is(err, accessgrants.ErrOTPUnavailable) {
		t.Fatalf("expected ErrOTPUnavailable, got %v", err)
	}
	if _, err := grants.GetByID(ctx, "g-1"); !errors.Is(err, accessgrants.ErrNotFound) {
		t.Fatalf("grant must not be stored, got %v", err)
	}
}
