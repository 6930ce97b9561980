package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"wavecap/pkg/wavecap"
)

// AuthMode selects between the login and signup forms.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeSignup
)

func (m AuthMode) String() string {
	if m == ModeSignup {
		return "Signup"
	}
	return "Login"
}

// Authenticator is the backend session surface.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*wavecap.AuthResult, error)
	Signup(ctx context.Context, email, password string) (*wavecap.AuthResult, error)
	Logout(ctx context.Context, uid string) (string, error)
}

// AuthState is a snapshot of the auth page.
type AuthState struct {
	Mode     AuthMode
	Email    string
	Busy     bool
	Message  string
	IPFSHash string
	UID      string // set once logged in
}

// Auth is the login/signup form.
type Auth struct {
	mu       sync.Mutex
	api      Authenticator
	notify   Notifier
	log      *slog.Logger
	mode     AuthMode
	email    string
	password string
	busy     bool
	message  string
	ipfsHash string
	uid      string
}

// NewAuth creates a login form. uid may carry a pre-issued session.
func NewAuth(api Authenticator, uid string, notify Notifier, log *slog.Logger) *Auth {
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Auth{api: api, uid: uid, notify: notify, log: log}
}

// SetEmail sets the email field.
func (a *Auth) SetEmail(v string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.email = v
}

// SetPassword sets the password field.
func (a *Auth) SetPassword(v string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.password = v
}

// ToggleMode switches between login and signup and clears any message.
func (a *Auth) ToggleMode() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == ModeLogin {
		a.mode = ModeSignup
	} else {
		a.mode = ModeLogin
	}
	a.message, a.ipfsHash = "", ""
}

// Submit posts the form for the current mode.
func (a *Auth) Submit() Fetch {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return nil
	}
	a.busy = true
	mode, email, password := a.mode, a.email, a.password

	return func(ctx context.Context) {
		var res *wavecap.AuthResult
		var err error
		if mode == ModeLogin {
			res, err = a.api.Login(ctx, email, password)
		} else {
			res, err = a.api.Signup(ctx, email, password)
		}

		a.mu.Lock()
		defer a.mu.Unlock()
		a.busy = false
		if err != nil {
			a.log.Warn("auth failed", "mode", mode.String(), "error", err)
			a.message = authFailure(err)
			a.notify.Notify(LevelError, a.message)
			return
		}
		if mode == ModeLogin {
			a.message = "Login successful!"
			a.uid = res.UID
			a.password = ""
			return
		}
		a.message = res.Message
		a.ipfsHash = res.IPFSHash
	}
}

// authFailure mirrors the form's error text: the backend's message for a
// rejected request, otherwise the transport error.
func authFailure(err error) string {
	var e *wavecap.Error
	if errors.As(err, &e) && e.Kind == wavecap.KindHTTP {
		if e.Message != "" {
			return e.Message
		}
		return "An error occurred."
	}
	return err.Error()
}

// Logout ends the session. The local uid is cleared immediately.
func (a *Auth) Logout() Fetch {
	a.mu.Lock()
	defer a.mu.Unlock()
	uid := a.uid
	a.uid, a.message, a.ipfsHash = "", "", ""
	if uid == "" {
		return nil
	}
	return func(ctx context.Context) {
		msg, err := a.api.Logout(ctx, uid)
		if err != nil {
			a.log.Warn("logout failed", "uid", uid, "error", err)
			return
		}
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.uid == "" {
			a.message = msg
		}
	}
}

// UID returns the signed-in user, or "".
func (a *Auth) UID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.uid
}

// State returns a snapshot.
func (a *Auth) State() AuthState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AuthState{
		Mode:     a.mode,
		Email:    a.email,
		Busy:     a.busy,
		Message:  a.message,
		IPFSHash: a.ipfsHash,
		UID:      a.uid,
	}
}
