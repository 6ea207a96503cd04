package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

type loginCmd struct {
	Email    string `required:"" env:"RENSIGHTS_ADMIN_EMAIL" help:"Admin email."`
	Password string `env:"RENSIGHTS_ADMIN_PASSWORD" help:"Admin password (read from stdin when empty)."`
}

func (cmd *loginCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	password := cmd.Password
	if password == "" {
		fmt.Fprint(g.out(), "Password: ")
		line, err := bufio.NewReader(g.in()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("rensightsctl: password is required")
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if err := a.Login(ctx, cmd.Email, password); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "signed in as %s\n", strings.TrimSpace(cmd.Email))
	return nil
}

type logoutCmd struct{}

func (cmd *logoutCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	if err := a.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(g.out(), "signed out")
	return nil
}
