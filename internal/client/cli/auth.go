package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/decksync/internal/client/api"
	"github.com/dmitrijs2005/decksync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts the user for an email and password and authenticates against
// the deck service. On success the session is persisted, so subsequent runs
// reuse it until it expires.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	user, err := a.sessions.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrUnavailable) {
			printlnFn("Service unavailable, try again later")
		} else if errors.Is(err, api.ErrUnauthorized) {
			printlnFn("Invalid email or password")
		} else {
			printlnFn("Login failed:", err.Error())
		}
		return err
	}

	if user != nil {
		a.userEmail = user.Email
	}
	printlnFn("Logged in as", a.userEmail)
	return nil
}

// Logout drops the stored session.
func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	a.userEmail = ""
	printlnFn("Logged out")
	return nil
}

// requireSession makes sure an access token is installed before a command
// talks to the service, translating session errors into user guidance.
func (a *App) requireSession(ctx context.Context) error {
	err := a.sessions.EnsureValid(ctx)
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, common.ErrNotLoggedIn):
		printlnFn("Not logged in, use 'login' first")
	case errors.Is(err, common.ErrSessionExpired):
		a.userEmail = ""
		printlnFn("Session expired, please log in again")
	case errors.Is(err, api.ErrUnavailable):
		printlnFn("Service unavailable, try again later")
	default:
		printlnFn(fmt.Sprintf("Session error: %v", err))
	}
	return err
}
