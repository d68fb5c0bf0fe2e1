package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/rl1809/westock/internal/port"
)

const MinPINLength = 4

var (
	ErrPINTooShort = errors.New("pin must be at least 4 characters")
	ErrWrongPIN    = errors.New("wrong pin")
)

// LockService is the app-lock gate in front of the store. The PIN is kept in
// plain text next to the data; it gates the UI and protects nothing at rest.
type LockService struct {
	store port.LocalStore
}

func NewLockService(store port.LocalStore) *LockService {
	return &LockService{store: store}
}

func (s *LockService) SetPIN(ctx context.Context, pin string) error {
	if len(pin) < MinPINLength {
		return ErrPINTooShort
	}
	return s.store.SetPIN(ctx, pin)
}

func (s *LockService) HasPIN(ctx context.Context) (bool, error) {
	pin, err := s.store.PIN(ctx)
	if err != nil {
		return false, err
	}
	return pin != "", nil
}

// CheckPIN always fails when no PIN is set.
func (s *LockService) CheckPIN(ctx context.Context, input string) (bool, error) {
	pin, err := s.store.PIN(ctx)
	if err != nil {
		return false, err
	}
	if pin == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(pin), []byte(input)) == 1, nil
}

func (s *LockService) RemovePIN(ctx context.Context) error {
	return s.store.ClearPIN(ctx)
}
