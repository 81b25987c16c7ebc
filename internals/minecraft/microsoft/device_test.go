package microsoft

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fakeDeviceAuth scripts the poll answers one after another
type fakeDeviceAuth struct {
	code        *DeviceCodeResponse
	polls       []PollResult
	pollCount   int
	codeCount   int
	issuedToken *oauth2.Token
}

func (f *fakeDeviceAuth) RequestDeviceCode(ctx context.Context) (*DeviceCodeResponse, error) {
	f.codeCount++
	return f.code, nil
}

func (f *fakeDeviceAuth) PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, PollResult, error) {
	if f.pollCount >= len(f.polls) {
		return nil, PollPending, nil
	}
	result := f.polls[f.pollCount]
	f.pollCount++
	if result == PollAuthorized {
		return f.issuedToken, result, nil
	}
	return nil, result, nil
}

func newFakeDeviceAuth(polls ...PollResult) *fakeDeviceAuth {
	return &fakeDeviceAuth{
		code: &DeviceCodeResponse{
			DeviceCode:      "device-123",
			UserCode:        "ABCD-EFGH",
			VerificationURI: "https://microsoft.com/link",
			ExpiresIn:       900,
			Interval:        5,
		},
		polls:       polls,
		issuedToken: &oauth2.Token{AccessToken: "at", RefreshToken: "rt"},
	}
}

func stepUntilPolling(t *testing.T, s *DeviceSession, provider DeviceAuthProvider) {
	t.Helper()
	ctx := context.Background()
	if err := s.Step(ctx, provider); err != nil {
		t.Fatal(err)
	}
	if s.State != StateDeviceCodeRequested {
		t.Fatalf("state = %s, want device-code-requested", s.State)
	}
	if err := s.Step(ctx, provider); err != nil {
		t.Fatal(err)
	}
	if s.State != StatePolling {
		t.Fatalf("state = %s, want polling", s.State)
	}
}

func TestDeviceSessionAuthorized(t *testing.T) {
	fake := newFakeDeviceAuth(PollPending, PollPending, PollAuthorized)
	session := NewDeviceSession()

	stepUntilPolling(t, session, fake)
	if session.Code.UserCode != "ABCD-EFGH" {
		t.Errorf("user code = %q", session.Code.UserCode)
	}
	if session.Interval() != 5*time.Second {
		t.Errorf("interval = %s, want 5s", session.Interval())
	}

	ctx := context.Background()
	for session.State == StatePolling {
		if err := session.Step(ctx, fake); err != nil {
			t.Fatal(err)
		}
	}

	if session.State != StateAuthorized {
		t.Fatalf("state = %s, want authorized", session.State)
	}
	if session.Token == nil || session.Token.AccessToken != "at" {
		t.Errorf("token = %v", session.Token)
	}
	if fake.pollCount != 3 {
		t.Errorf("provider polled %d times, want 3", fake.pollCount)
	}

	// authorized is terminal
	if err := session.Step(ctx, fake); err != nil || session.State != StateAuthorized {
		t.Errorf("Step() after authorized = %v, state %s", err, session.State)
	}
}

func TestDeviceSessionSlowDown(t *testing.T) {
	fake := newFakeDeviceAuth(PollSlowDown, PollAuthorized)
	session := NewDeviceSession()
	stepUntilPolling(t, session, fake)

	if err := session.Step(context.Background(), fake); err != nil {
		t.Fatal(err)
	}
	if session.State != StatePolling {
		t.Errorf("state = %s, want polling", session.State)
	}
	if session.Interval() != 10*time.Second {
		t.Errorf("interval = %s, want 10s after slow_down", session.Interval())
	}
}

func TestDeviceSessionExpires(t *testing.T) {
	fake := newFakeDeviceAuth(PollPending)
	session := NewDeviceSession()
	stepUntilPolling(t, session, fake)

	// jump past the code's lifetime
	session.now = func() time.Time { return time.Now().Add(time.Hour) }

	err := session.Step(context.Background(), fake)
	if !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Step() = %v, want ErrAuthExpired", err)
	}
	if session.State != StateExpired {
		t.Errorf("state = %s, want expired", session.State)
	}
	if session.Token != nil {
		t.Error("expired session holds a token")
	}

	// expired is terminal
	if err := session.Step(context.Background(), fake); !errors.Is(err, ErrAuthExpired) {
		t.Errorf("Step() after expiry = %v", err)
	}
}

func TestDeviceSessionProviderReportsExpiry(t *testing.T) {
	fake := newFakeDeviceAuth(PollExpired)
	session := NewDeviceSession()
	stepUntilPolling(t, session, fake)

	if err := session.Step(context.Background(), fake); !errors.Is(err, ErrAuthExpired) {
		t.Fatalf("Step() = %v, want ErrAuthExpired", err)
	}
	if session.State != StateExpired {
		t.Errorf("state = %s, want expired", session.State)
	}
}

func TestDeviceSessionDenied(t *testing.T) {
	fake := newFakeDeviceAuth(PollDenied)
	session := NewDeviceSession()
	stepUntilPolling(t, session, fake)

	if err := session.Step(context.Background(), fake); !errors.Is(err, ErrAuthDenied) {
		t.Fatalf("Step() = %v, want ErrAuthDenied", err)
	}
	if session.State != StateDenied {
		t.Errorf("state = %s, want denied", session.State)
	}
}

func TestDeviceSessionTransportErrorKeepsState(t *testing.T) {
	session := NewDeviceSession()
	fake := newFakeDeviceAuth(PollAuthorized)
	stepUntilPolling(t, session, fake)

	broken := &erroringDeviceAuth{}
	if err := session.Step(context.Background(), broken); err == nil {
		t.Fatal("Step() = nil, want transport error")
	}
	if session.State != StatePolling {
		t.Errorf("state = %s, transport errors must not change it", session.State)
	}

	// the same session recovers once the provider answers again
	if err := session.Step(context.Background(), fake); err != nil {
		t.Fatal(err)
	}
	if session.State != StateAuthorized {
		t.Errorf("state = %s, want authorized", session.State)
	}
}

type erroringDeviceAuth struct{}

func (e *erroringDeviceAuth) RequestDeviceCode(ctx context.Context) (*DeviceCodeResponse, error) {
	return nil, errors.New("connection refused")
}

func (e *erroringDeviceAuth) PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, PollResult, error) {
	return nil, PollPending, errors.New("connection refused")
}

func TestOauthFlow(t *testing.T) {
	fake := newFakeDeviceAuth(PollAuthorized)
	// zero interval keeps the test fast
	fake.code.Interval = 0

	client := New(http.DefaultClient, &oauth2.Config{ClientID: "client-id"})
	client.DeviceAuth = fake

	var shown *DeviceCodeResponse
	err := client.Oauth(context.Background(), func(code *DeviceCodeResponse) {
		shown = code
	})
	if err != nil {
		t.Fatal(err)
	}

	if shown == nil || shown.UserCode != "ABCD-EFGH" {
		t.Errorf("user code was not shown: %v", shown)
	}
	if tok := client.Token; tok == nil || tok.AccessToken != "at" {
		t.Errorf("client token = %v", tok)
	}
}

func TestOauthCancelled(t *testing.T) {
	fake := newFakeDeviceAuth() // polls stay pending forever
	fake.code.Interval = 1

	client := New(http.DefaultClient, &oauth2.Config{ClientID: "client-id"})
	client.DeviceAuth = fake

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if err := client.Oauth(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Oauth() = %v, want context.Canceled", err)
	}
}
