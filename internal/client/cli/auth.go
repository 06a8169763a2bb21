package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kodbank/kodbank/internal/client/client"
	"github.com/kodbank/kodbank/internal/client/services"
	"github.com/kodbank/kodbank/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for username, email, password and an optional phone and
// creates the account.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	phone, err := getSimpleText(a.reader, "Enter phone (optional)", a.out)
	if err != nil {
		return err
	}

	if err := a.authService.Register(ctx, username, email, password, phone); err != nil {
		a.report(ctx, "register", err)
		return err
	}

	fmt.Fprintln(a.out, "Registration successful")
	return nil
}

// Login prompts for email and password. On success the session is stored
// and the prompt shows the username.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.authService.Login(ctx, email, password)
	if err != nil {
		a.report(ctx, "login", err)
		return err
	}

	a.userName = s.Username
	fmt.Fprintf(a.out, "Welcome, %s!\n", s.Username)
	return nil
}

func (a *App) Balance(ctx context.Context) error {
	balance, err := a.authService.Balance(ctx)
	if err != nil {
		if errors.Is(err, client.ErrSessionExpired) || errors.Is(err, services.ErrNotLoggedIn) {
			a.userName = ""
		}
		a.report(ctx, "balance", err)
		return err
	}

	fmt.Fprintf(a.out, "Balance: %s\n", balance)
	return nil
}

// Logout always forgets the local session. A server failure is reported but
// the client stays logged out.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx)
	a.userName = ""
	if err != nil {
		a.report(ctx, "logout", err)
		return err
	}

	fmt.Fprintln(a.out, "Logged out successfully")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	s, err := a.authService.Current(ctx)
	if err != nil {
		a.report(ctx, "whoami", err)
		return err
	}

	if s.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Logged in as %s\n", s.Username)
	} else {
		fmt.Fprintf(a.out, "Logged in as %s until %s\n", s.Username, s.ExpiresAt.Local().Format(time.DateTime))
	}
	return nil
}

func (a *App) report(ctx context.Context, op string, err error) {
	a.logger.Debug(ctx, "command failed", "command", op, "error", err)
	fmt.Fprintln(a.out, describeError(err))
}

// describeError turns an error into a line for the user.
func describeError(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable, please try again later"
	case errors.Is(err, services.ErrNotLoggedIn):
		return "You are not logged in"
	case errors.Is(err, client.ErrServer):
		return "Server error"
	case errors.As(err, &apiErr):
		return apiErr.Message
	default:
		return "Error: " + err.Error()
	}
}
