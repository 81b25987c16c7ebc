package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/mclc/mclc/internals/credentials"
	"github.com/mclc/mclc/internals/minecraft"
	"github.com/mclc/mclc/internals/minecraft/microsoft"
)

// Microsoft authenticates through the device code flow and caches the
// resulting credentials in the store
type Microsoft struct {
	*microsoft.MicrosoftClient
	authData *microsoft.Credentials
	Store    *credentials.Store
	// OnDeviceCode is called with the user code to display during login
	OnDeviceCode func(*microsoft.DeviceCodeResponse)
}

// NewMicrosoft builds the provider for the given azure application id
// and restores any cached auth state from the store
func NewMicrosoft(client *http.Client, store *credentials.Store, clientID string) *Microsoft {
	m := &Microsoft{
		MicrosoftClient: microsoft.New(client, &oauth2.Config{ClientID: clientID}),
		Store:           store,
	}
	m.Restore()
	return m
}

// Restore loads previously persisted auth state from the store
func (m *Microsoft) Restore() bool {
	stored := m.Store.Get()
	if stored == nil || stored.Provider != "microsoft" {
		return false
	}

	authData := microsoft.Credentials{}
	if err := json.Unmarshal(stored.Data, &authData); err != nil {
		return false
	}

	log.Println("Restoring MS auth state")
	m.authData = &authData
	m.SetOauthToken(&authData.MicrosoftAuth)
	return true
}

// Prompt runs the interactive device code login and persists the result
func (m *Microsoft) Prompt(ctx context.Context) error {
	if err := m.Oauth(ctx, m.OnDeviceCode); err != nil {
		return err
	}

	creds, err := m.GetMinecraftCredentials(ctx)
	if err != nil {
		return err
	}
	m.authData = creds
	return m.persist()
}

// LaunchAuthData returns valid credentials, silently refreshing expired
// ones through the stored refresh token
func (m *Microsoft) LaunchAuthData(ctx context.Context) (minecraft.LaunchAuthData, error) {
	if m.authData == nil || m.authData.IsExpired() {
		log.Println("Refreshing MS auth data")
		return m.refreshAuthData(ctx)
	}
	// we have valid and unexpired auth data
	log.Println("Using cached MS auth data")
	return m.authData, nil
}

// Logout drops the cached credentials
func (m *Microsoft) Logout() error {
	m.authData = nil
	return m.Store.Clear()
}

func (m *Microsoft) refreshAuthData(ctx context.Context) (*microsoft.Credentials, error) {
	creds, err := m.GetMinecraftCredentials(ctx)
	if err != nil {
		// a failed refresh means interactive login is required again
		return nil, err
	}
	m.authData = creds
	if err := m.persist(); err != nil {
		return nil, err
	}
	return creds, nil
}

func (m *Microsoft) persist() error {
	log.Println("Persisting MS auth data")
	data, err := json.Marshal(m.authData)
	if err != nil {
		return err
	}
	return m.Store.Set(&credentials.Credentials{
		Provider: "microsoft",
		Data:     data,
	})
}
