package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/mclc/mclc/internals/credentials"
	"github.com/mclc/mclc/internals/minecraft/microsoft"
)

func storeWith(t *testing.T, creds *credentials.Credentials) *credentials.Store {
	t.Helper()
	store, err := credentials.NewWithoutKeyring(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if creds != nil {
		if err := store.Set(creds); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func cachedAuthData(t *testing.T, expiresAt time.Time) *credentials.Credentials {
	t.Helper()
	data, err := json.Marshal(&microsoft.Credentials{
		MinecraftAuth:    &microsoft.XboxLoginResponse{AccessToken: "mc-token"},
		MinecraftProfile: &microsoft.GetProfileResponse{ID: "069a79f444e94726a5befca90e38aaf5", Name: "Notch"},
		XUID:             "253975",
		ExpiresAt:        expiresAt,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &credentials.Credentials{Provider: "microsoft", Data: data}
}

func TestMicrosoftRestore(t *testing.T) {
	store := storeWith(t, cachedAuthData(t, time.Now().Add(time.Hour)))

	m := NewMicrosoft(http.DefaultClient, store, "client-id")

	// valid cached credentials are used without any round trip
	data, err := m.LaunchAuthData(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := data.GetPlayerName(); got != "Notch" {
		t.Errorf("GetPlayerName() = %q", got)
	}
	if got := data.GetUUID(); got != "069a79f4-44e9-4726-a5be-fca90e38aaf5" {
		t.Errorf("GetUUID() = %q", got)
	}
	if got := data.GetAccessToken(); got != "mc-token" {
		t.Errorf("GetAccessToken() = %q", got)
	}
}

func TestMicrosoftRestoreEmptyStore(t *testing.T) {
	store := storeWith(t, nil)

	m := NewMicrosoft(http.DefaultClient, store, "client-id")
	if m.Restore() {
		t.Error("Restore() = true on an empty store")
	}
}

func TestMicrosoftRestoreForeignProvider(t *testing.T) {
	store := storeWith(t, &credentials.Credentials{
		Provider: "yggdrasil",
		Data:     json.RawMessage(`{}`),
	})

	m := NewMicrosoft(http.DefaultClient, store, "client-id")
	if m.Restore() {
		t.Error("Restore() = true for another provider's data")
	}
}

func TestMicrosoftLogout(t *testing.T) {
	store := storeWith(t, cachedAuthData(t, time.Now().Add(time.Hour)))

	m := NewMicrosoft(http.DefaultClient, store, "client-id")
	if err := m.Logout(); err != nil {
		t.Fatal(err)
	}

	if store.Get() != nil {
		t.Error("store still holds credentials after logout")
	}
	if m.Restore() {
		t.Error("Restore() = true after logout")
	}
}
