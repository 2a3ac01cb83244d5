package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	all := []error{
		ErrAuthenticationFailed,
		ErrValidation,
		ErrInvalidToken,
		ErrExpiredToken,
		ErrProvisioningFailed,
		ErrUserNotFound,
		ErrIdentityConflict,
		ErrWalletAddressTaken,
		ErrDuplicate,
	}
	for i, a := range all {
		if a == nil {
			t.Fatalf("sentinel %d is nil", i)
		}
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%q should not match %q", a, b)
			}
		}
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("name: %w", ErrValidation)
	if !errors.Is(err, ErrValidation) {
		t.Error("wrapped ErrValidation should match")
	}
	if errors.Is(err, ErrAuthenticationFailed) {
		t.Error("wrapped ErrValidation should not match ErrAuthenticationFailed")
	}
}
