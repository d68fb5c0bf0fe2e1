package service

import (
	"context"
	"errors"
	"testing"
)

func TestLock_SetCheckRemove(t *testing.T) {
	svc := NewLockService(newMockLocalStore())
	ctx := context.Background()

	if ok, _ := svc.CheckPIN(ctx, "1234"); ok {
		t.Error("check must fail when no pin is set")
	}
	if has, _ := svc.HasPIN(ctx); has {
		t.Error("expected no pin")
	}

	if err := svc.SetPIN(ctx, "123"); !errors.Is(err, ErrPINTooShort) {
		t.Errorf("expected ErrPINTooShort, got %v", err)
	}
	if err := svc.SetPIN(ctx, "1234"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok, _ := svc.CheckPIN(ctx, "1234"); !ok {
		t.Error("expected correct pin to pass")
	}
	if ok, _ := svc.CheckPIN(ctx, "4321"); ok {
		t.Error("expected wrong pin to fail")
	}
	if ok, _ := svc.CheckPIN(ctx, "12345"); ok {
		t.Error("expected longer pin to fail")
	}

	if err := svc.RemovePIN(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if has, _ := svc.HasPIN(ctx); has {
		t.Error("expected pin to be removed")
	}
}
