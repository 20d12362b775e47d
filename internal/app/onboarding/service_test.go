package onboarding

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"testing"

	"judgement/internal/ports"
)

type fakeAccountPort struct {
	updateErr error
	names     []string
}

func (f *fakeAccountPort) UpdateProfile(ctx context.Context, userID, username, displayName string) error {
	f.names = append(f.names, displayName)
	return f.updateErr
}

type fakeStatsPort struct {
	initErr error
	created bool
	inits   []string
}

func (f *fakeStatsPort) InitStats(ctx context.Context, userID string) (bool, error) {
	f.inits = append(f.inits, userID)
	if f.initErr != nil {
		return false, f.initErr
	}
	return f.created, nil
}

func (f *fakeStatsPort) RecordResults(ctx context.Context, results []ports.GameResult) error {
	return nil
}

var friendlyName = regexp.MustCompile(`^[A-Z][a-z]+[A-Z][a-z]+\d{4}$`)

func TestOnboardNewUser_InitsStats(t *testing.T) {
	accounts := &fakeAccountPort{}
	stats := &fakeStatsPort{created: true}
	service := NewService(accounts, stats, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.ProfileUpdateErr != nil {
		t.Fatalf("Expected no profile update error, got %v", result.ProfileUpdateErr)
	}
	if !result.StatsCreated {
		t.Fatal("Expected stats record to be created")
	}
	if len(stats.inits) != 1 || stats.inits[0] != "user-1" {
		t.Fatalf("Expected one stats init for user-1, got %v", stats.inits)
	}
	if len(accounts.names) != 1 || !friendlyName.MatchString(accounts.names[0]) {
		t.Fatalf("Expected a friendly display name, got %v", accounts.names)
	}
	if accounts.names[0] != result.DisplayName {
		t.Fatalf("Result name %q does not match the applied name %q", result.DisplayName, accounts.names[0])
	}
}

func TestOnboardNewUser_AccountUpdateFailureStillInitsStats(t *testing.T) {
	stats := &fakeStatsPort{created: true}
	service := NewService(&fakeAccountPort{updateErr: errors.New("update failed")}, stats, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.ProfileUpdateErr == nil {
		t.Fatal("Expected profile update error to be captured")
	}
	if len(stats.inits) != 1 {
		t.Fatalf("Expected 1 stats init, got %d", len(stats.inits))
	}
}

func TestOnboardNewUser_StatsFailureReturnsError(t *testing.T) {
	service := NewService(&fakeAccountPort{}, &fakeStatsPort{initErr: errors.New("storage down")}, rand.New(rand.NewSource(1)))

	if _, err := service.OnboardNewUser(context.Background(), "user-1"); err == nil {
		t.Fatal("Expected error when stats init fails")
	}
}

func TestOnboardNewUser_StatsAlreadyExist(t *testing.T) {
	service := NewService(&fakeAccountPort{}, &fakeStatsPort{created: false}, rand.New(rand.NewSource(1)))

	result, err := service.OnboardNewUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("OnboardNewUser returned error: %v", err)
	}
	if result.StatsCreated {
		t.Fatal("Expected existing stats record to be left alone")
	}
}

func TestOnboardNewUser_NotConfigured(t *testing.T) {
	if _, err := NewService(nil, nil, nil).OnboardNewUser(context.Background(), "user-1"); err == nil {
		t.Fatal("Expected error for unconfigured service")
	}
}
