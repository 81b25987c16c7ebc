package auth

import (
	"context"
	"testing"
)

func TestOfflineIdentity(t *testing.T) {
	offline := &Offline{Username: "Steve"}

	if err := offline.Prompt(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := offline.LaunchAuthData(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if got := data.GetPlayerName(); got != "Steve" {
		t.Errorf("GetPlayerName() = %q", got)
	}
	if got := data.GetUUID(); got != "00000000-0000-0000-0000-000000000000" {
		t.Errorf("GetUUID() = %q", got)
	}
	if got := data.GetAccessToken(); got != "0" {
		t.Errorf("GetAccessToken() = %q", got)
	}
	if got := data.GetUserType(); got != "legacy" {
		t.Errorf("GetUserType() = %q", got)
	}
}

func TestOfflineDefaultName(t *testing.T) {
	data, err := (&Offline{}).LaunchAuthData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := data.GetPlayerName(); got != "Player" {
		t.Errorf("GetPlayerName() = %q", got)
	}
}
