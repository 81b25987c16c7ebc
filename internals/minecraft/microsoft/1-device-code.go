package microsoft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// deviceCodeURL is the azure "consumers" tenant device code endpoint.
// The token poll goes to the oauth config's TokenURL.
const deviceCodeURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"

var (
	// ErrAuthExpired is returned when the user did not authorize the
	// device before its code expired
	ErrAuthExpired = errors.New("device authorization expired before it was approved")
	// ErrAuthDenied is returned when the user explicitly declined the
	// authorization request
	ErrAuthDenied = errors.New("device authorization was denied")
)

// DeviceCodeResponse is the providers answer to a device code request
type DeviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	// ExpiresIn seconds until the user code becomes invalid
	ExpiresIn int `json:"expires_in"`
	// Interval is the minimum number of seconds between token polls
	Interval int `json:"interval"`
	Message  string `json:"message"`
}

// PollResult classifies one token poll round trip
type PollResult uint8

const (
	// PollPending means the user has not finished authorizing yet
	PollPending PollResult = iota
	// PollSlowDown means the provider wants longer pauses between polls
	PollSlowDown
	// PollAuthorized means a token was issued
	PollAuthorized
	// PollExpired means the device code expired
	PollExpired
	// PollDenied means the user declined the request
	PollDenied
)

// DeviceAuthProvider is the part of the identity provider the device
// flow state machine talks to. Tests inject a fake implementation.
type DeviceAuthProvider interface {
	RequestDeviceCode(ctx context.Context) (*DeviceCodeResponse, error)
	PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, PollResult, error)
}

// SessionState is the state of one device flow session
type SessionState uint8

const (
	StateIdle SessionState = iota
	StateDeviceCodeRequested
	StatePolling
	StateAuthorized
	StateExpired
	StateDenied
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeviceCodeRequested:
		return "device-code-requested"
	case StatePolling:
		return "polling"
	case StateAuthorized:
		return "authorized"
	case StateExpired:
		return "expired"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// DeviceSession is the tagged state of one device code login. Step
// advances it one transition at a time, which keeps every transition
// testable without a live endpoint.
type DeviceSession struct {
	State SessionState
	Code  *DeviceCodeResponse
	Token *oauth2.Token

	deadline time.Time
	interval time.Duration

	// now is swappable for tests
	now func() time.Time
}

func NewDeviceSession() *DeviceSession {
	return &DeviceSession{State: StateIdle, now: time.Now}
}

// Interval returns the wait the driving loop has to respect between polls
func (s *DeviceSession) Interval() time.Duration {
	return s.interval
}

// Step drives the session one transition forward:
//
//	Idle -> DeviceCodeRequested -> Polling -> Authorized | Expired | Denied
//
// While the provider keeps answering "pending" the session stays in
// Polling. Transport errors leave the state untouched so the caller may
// retry the step.
func (s *DeviceSession) Step(ctx context.Context, provider DeviceAuthProvider) error {
	switch s.State {
	case StateIdle:
		code, err := provider.RequestDeviceCode(ctx)
		if err != nil {
			return err
		}
		s.Code = code
		s.deadline = s.now().Add(time.Duration(code.ExpiresIn) * time.Second)
		s.interval = time.Duration(code.Interval) * time.Second
		if s.interval < time.Second {
			s.interval = time.Second
		}
		s.State = StateDeviceCodeRequested
		return nil

	case StateDeviceCodeRequested:
		s.State = StatePolling
		return nil

	case StatePolling:
		if s.now().After(s.deadline) {
			s.State = StateExpired
			return ErrAuthExpired
		}

		token, result, err := provider.PollToken(ctx, s.Code.DeviceCode)
		if err != nil {
			return err
		}
		switch result {
		case PollAuthorized:
			s.Token = token
			s.State = StateAuthorized
			return nil
		case PollPending:
			return nil
		case PollSlowDown:
			s.interval += 5 * time.Second
			return nil
		case PollExpired:
			s.State = StateExpired
			return ErrAuthExpired
		case PollDenied:
			s.State = StateDenied
			return ErrAuthDenied
		default:
			return fmt.Errorf("unknown poll result %d", result)
		}

	case StateExpired:
		return ErrAuthExpired
	case StateDenied:
		return ErrAuthDenied
	default:
		// Authorized is terminal
		return nil
	}
}

// Oauth runs the whole device code flow. onCode is called once with the
// user code & verification url so the caller can display them. The
// session honors the provider supplied poll interval and is cancelable
// between polls.
func (m *MicrosoftClient) Oauth(ctx context.Context, onCode func(*DeviceCodeResponse)) error {
	session := NewDeviceSession()

	for {
		err := session.Step(ctx, m.DeviceAuth)
		if err != nil {
			return err
		}

		switch session.State {
		case StateDeviceCodeRequested:
			if onCode != nil {
				onCode(session.Code)
			}
		case StateAuthorized:
			m.SetOauthToken(session.Token)
			return nil
		case StatePolling:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(session.Interval()):
			}
		}
	}
}

// azureDeviceAuth is the real provider talking to the azure endpoints
type azureDeviceAuth struct {
	client *http.Client
	config *oauth2.Config
}

func (a *azureDeviceAuth) RequestDeviceCode(ctx context.Context) (*DeviceCodeResponse, error) {
	form := url.Values{
		"client_id": {a.config.ClientID},
		"scope":     {strings.Join(a.config.Scopes, " ")},
	}

	res, err := a.postForm(ctx, deviceCodeURL, form)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("device code request failed with status %s: %s", res.Status, body)
	}

	code := DeviceCodeResponse{}
	if err := json.NewDecoder(res.Body).Decode(&code); err != nil {
		return nil, err
	}
	return &code, nil
}

func (a *azureDeviceAuth) PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, PollResult, error) {
	form := url.Values{
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {deviceCode},
		"client_id":   {a.config.ClientID},
	}

	res, err := a.postForm(ctx, a.config.Endpoint.TokenURL, form)
	if err != nil {
		return nil, PollPending, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		var raw struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			TokenType    string `json:"token_type"`
			ExpiresIn    int    `json:"expires_in"`
		}
		if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
			return nil, PollPending, err
		}
		token := &oauth2.Token{
			AccessToken:  raw.AccessToken,
			RefreshToken: raw.RefreshToken,
			TokenType:    raw.TokenType,
			Expiry:       time.Now().Add(time.Duration(raw.ExpiresIn) * time.Second),
		}
		return token, PollAuthorized, nil
	}

	body, _ := io.ReadAll(res.Body)
	var errRes struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errRes); err != nil {
		return nil, PollPending, fmt.Errorf("token poll failed with status %s: %s", res.Status, body)
	}

	switch errRes.Error {
	case "authorization_pending":
		return nil, PollPending, nil
	case "slow_down":
		return nil, PollSlowDown, nil
	case "expired_token":
		return nil, PollExpired, nil
	case "authorization_declined", "access_denied":
		return nil, PollDenied, nil
	default:
		return nil, PollPending, fmt.Errorf("token poll failed with %q: %s", errRes.Error, body)
	}
}

func (a *azureDeviceAuth) postForm(ctx context.Context, endpoint string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.client.Do(req)
}
