package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// LoginInput carries admin credentials.
type LoginInput struct {
	Email    string
	Password string
}

type authenticator interface {
	Login(ctx context.Context, email, password string) (adminapi.LoginResponse, error)
}

// LoginCommand signs in and stores the token in the session.
type LoginCommand struct {
	auth      authenticator
	telemetry Telemetry
}

// NewLoginCommand creates the command.
func NewLoginCommand(auth authenticator, telemetry Telemetry) *LoginCommand {
	return &LoginCommand{auth: auth, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LoginInput] = (*LoginCommand)(nil)

// Execute performs the login.
func (c *LoginCommand) Execute(ctx context.Context, msg LoginInput) error {
	if c.auth == nil {
		return errors.New("login command requires an authenticator")
	}
	resp, err := c.auth.Login(ctx, strings.TrimSpace(msg.Email), msg.Password)
	if err != nil {
		c.telemetry.Record(ctx, "admin.login_failed", map[string]any{
			"kind": string(adminapi.KindOf(err)),
		})
		return err
	}
	c.telemetry.Record(ctx, "admin.login", map[string]any{
		"email": resp.Email,
		"role":  resp.Role,
	})
	return nil
}

// LogoutInput has no fields; logging out only forgets the token.
type LogoutInput struct{}

type signOuter interface {
	Logout(ctx context.Context) error
}

// LogoutCommand clears the session.
type LogoutCommand struct {
	auth      signOuter
	telemetry Telemetry
}

// NewLogoutCommand creates the command.
func NewLogoutCommand(auth signOuter, telemetry Telemetry) *LogoutCommand {
	return &LogoutCommand{auth: auth, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[LogoutInput] = (*LogoutCommand)(nil)

// Execute clears the stored token.
func (c *LogoutCommand) Execute(ctx context.Context, _ LogoutInput) error {
	if c.auth == nil {
		return errors.New("logout command requires an authenticator")
	}
	if err := c.auth.Logout(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.logout", nil)
	return nil
}
