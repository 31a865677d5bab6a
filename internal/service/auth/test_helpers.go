package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// hashForTest hashes a password at the minimum bcrypt cost to keep tests fast.
func hashForTest(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	return string(hashed)
}
