package auth

import (
	"context"

	"github.com/mclc/mclc/internals/minecraft"
)

// offlineUUID is used for accounts that never talked to any auth server
const offlineUUID = "00000000-0000-0000-0000-000000000000"

// Offline is an identity without any backing account. It can not join
// online mode servers but is enough to start the game.
type Offline struct {
	Username string
}

func (o *Offline) Prompt(ctx context.Context) error { return nil }

func (o *Offline) LaunchAuthData(ctx context.Context) (minecraft.LaunchAuthData, error) {
	return o, nil
}

func (o *Offline) GetAccessToken() string { return "0" }
func (o *Offline) GetUUID() string        { return offlineUUID }
func (o *Offline) GetPlayerName() string {
	if o.Username == "" {
		return "Player"
	}
	return o.Username
}
func (o *Offline) GetUserType() string { return "legacy" }
func (o *Offline) GetXUID() string     { return "" }
