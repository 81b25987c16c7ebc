package microsoft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type XboxLoginResponse struct {
	// Username is not the Minecraft username!
	Username string        `json:"username"`
	Roles    []interface{} `json:"roles"`
	// AccessToken should be used for all future requests
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type GetProfileResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Skins []struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		URL     string `json:"url"`
		Variant string `json:"variant"`
		Alias   string `json:"alias"`
	} `json:"skins"`
	Capes []interface{} `json:"capes"`
}

// FormatUUID turns the profile's 32 char hex id into the dashed form
// the game arguments expect. Already dashed ids are returned untouched.
func FormatUUID(id string) string {
	if len(id) != 32 || strings.Contains(id, "-") {
		return id
	}
	return id[0:8] + "-" + id[8:12] + "-" + id[12:16] + "-" + id[16:20] + "-" + id[20:32]
}

func (m *MicrosoftClient) minecraftLoginWithXbox(ctx context.Context, userHash string, token string) (*XboxLoginResponse, error) {
	body := fmt.Sprintf(`{ "identityToken": "XBL3.0 x=%s;%s" }`, userHash, token)

	req, _ := jsonPostReqFromText(MC_API_XBOX_LOGIN, body)
	req = req.WithContext(ctx)
	res, err := m.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected response with status %d (%s)", res.StatusCode, res.Status)
	}

	authRes := XboxLoginResponse{}
	if err := json.NewDecoder(res.Body).Decode(&authRes); err != nil {
		return nil, err
	}
	return &authRes, nil
}

func (m *MicrosoftClient) getProfile(ctx context.Context, token string) (*GetProfileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", MC_API_PROFILE, nil)
	if err != nil {
		return nil, err
	}

	if token == "" {
		return nil, fmt.Errorf("no token provided")
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	resp, err := m.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
	}
	var profile GetProfileResponse
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}
