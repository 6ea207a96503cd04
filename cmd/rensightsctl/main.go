package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type cli struct {
	Globals

	Login        loginCmd        `cmd:"" help:"Sign in and store the admin token."`
	Logout       logoutCmd       `cmd:"" help:"Forget the stored admin token."`
	List         listCmd         `cmd:"" help:"List one page of a resource."`
	Get          getCmd          `cmd:"" help:"Show a single record."`
	Update       updateCmd       `cmd:"" help:"Edit fields of a record (--set field=value)."`
	Action       actionCmd       `cmd:"" help:"Run a record action such as approve or publish."`
	Status       statusCmd       `cmd:"" help:"Set the status of an analysis request."`
	Delete       deleteCmd       `cmd:"" help:"Delete a record after confirmation."`
	DeleteAll    deleteAllCmd    `cmd:"" name:"delete-all" help:"Delete every record of a resource after confirmation."`
	BatchApprove batchApproveCmd `cmd:"" name:"batch-approve" help:"Approve the given deals, or every pending deal."`
	Overview     overviewCmd     `cmd:"" help:"Show the dashboard overview."`
	Languages    languagesCmd    `cmd:"" help:"List enabled languages."`
	Report       reportCmd       `cmd:"" help:"Download a city report."`
	Serve        serveCmd        `cmd:"" help:"Run the admin BFF over HTTP."`
	FakeBackend  fakeBackendCmd  `cmd:"" name:"fake-backend" help:"Run an in-memory admin backend for local development."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var root cli
	kctx := kong.Parse(&root,
		kong.Name("rensightsctl"),
		kong.Description("Command line client for the Rensights admin API."),
		kong.UsageOnError(),
		kong.Bind(&root.Globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run()
	kctx.FatalIfErrorf(err)
}
