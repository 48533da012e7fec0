package instance

import "testing"

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(envInstanceID, "cartd-7")
	if got := GetID(); got != "cartd-7" {
		t.Fatalf("expected env id, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv(envInstanceID, "")
	if got := GetID(); got == "" {
		t.Fatal("expected a non-empty id")
	}
}
