package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/queries"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
	"github.com/rensights/admin-dashboard/pkg/telemetry"
)

type listCmd struct {
	Resource string `arg:"" help:"Resource name (users, deals, analysis-requests, ...)."`
	Page     int    `short:"p" default:"1" help:"1-based page number."`
	Filter   string `short:"f" help:"Status, city or search filter depending on the resource."`
}

func (cmd *listCmd) Run(ctx context.Context, g *Globals) error {
	if cmd.Page < 1 {
		return errors.New("rensightsctl: page must be at least 1")
	}
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	exec, err := g.executor(a, cmd.Resource)
	if err != nil {
		return err
	}
	state, err := exec.Page(ctx, queries.PageInput{Page: cmd.Page - 1, Filter: cmd.Filter})
	if err != nil {
		return err
	}
	return printPage(g.out(), g.Output, state)
}

type getCmd struct {
	Resource string `arg:"" help:"Resource name."`
	ID       string `arg:"" help:"Record id."`
}

func (cmd *getCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	exec, err := g.executor(a, cmd.Resource)
	if err != nil {
		return err
	}
	record, err := exec.Detail(ctx, queries.DetailInput{ID: cmd.ID})
	if err != nil {
		return err
	}
	return printRecord(g.out(), g.Output, record)
}

type updateCmd struct {
	Resource string            `arg:"" help:"Resource name."`
	ID       string            `arg:"" help:"Record id."`
	Set      map[string]string `short:"s" required:"" help:"Field to change, as field=value. JSON literals keep their type."`
}

func (cmd *updateCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	exec, err := g.executor(a, cmd.Resource)
	if err != nil {
		return err
	}
	if err := exec.Update(ctx, commands.MutateRecordInput{ID: cmd.ID, Changes: parseSet(cmd.Set)}); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "updated %s %s\n", exec.Resource(), cmd.ID)
	return nil
}

type actionCmd struct {
	Resource string `arg:"" help:"Resource name."`
	ID       string `arg:"" help:"Record id."`
	Action   string `arg:"" help:"Action name (approve, reject, publish, ...)."`
}

func (cmd *actionCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	exec, err := g.executor(a, cmd.Resource)
	if err != nil {
		return err
	}
	if err := exec.Action(ctx, commands.RecordActionInput{ID: cmd.ID, Action: cmd.Action}); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "%s %s: %s done\n", exec.Resource(), cmd.ID, cmd.Action)
	return nil
}

type statusCmd struct {
	ID     string `arg:"" help:"Analysis request id."`
	Status string `arg:"" help:"New status (PENDING, IN_PROGRESS, COMPLETED, CANCELLED)."`
}

func (cmd *statusCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	updated, err := a.SetAnalysisRequestStatus(ctx, cmd.ID, cmd.Status)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "%s %s: %s\n", adminapi.ResourceAnalysisRequests, updated.ID, updated.Status)
	return nil
}

type deleteCmd struct {
	Resource string `arg:"" help:"Resource name."`
	ID       string `arg:"" help:"Record id."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (cmd *deleteCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	exec, err := g.executor(a, cmd.Resource)
	if err != nil {
		return err
	}
	confirmed := g.confirm(fmt.Sprintf("Delete %s %s?", exec.Resource(), cmd.ID), cmd.Yes)
	err = exec.Delete(ctx, commands.DeleteRecordInput{ID: cmd.ID, Confirmed: confirmed})
	if errors.Is(err, commands.ErrConfirmationRequired) {
		fmt.Fprintln(g.out(), "cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "deleted %s %s\n", exec.Resource(), cmd.ID)
	return nil
}

type deleteAllCmd struct {
	Resource string `arg:"" help:"Resource name."`
	Yes      bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (cmd *deleteAllCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	exec, err := g.executor(a, cmd.Resource)
	if err != nil {
		return err
	}
	resource := a.API().Documents(exec.Resource())
	command := commands.NewDeleteAllCommand(resource, nil, telemetry.Noop{})
	confirmed := g.confirm(fmt.Sprintf("Delete every record of %s?", exec.Resource()), cmd.Yes)
	err = command.Execute(ctx, commands.DeleteAllInput{Confirmed: confirmed})
	if errors.Is(err, commands.ErrConfirmationRequired) {
		fmt.Fprintln(g.out(), "cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "deleted every %s record\n", exec.Resource())
	return nil
}

type batchApproveCmd struct {
	IDs []string `arg:"" optional:"" name:"id" help:"Deal ids. Every pending deal when omitted."`
	Yes bool     `short:"y" help:"Skip the confirmation prompt."`
}

func (cmd *batchApproveCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	prompt := "Approve every pending deal?"
	if len(cmd.IDs) > 0 {
		prompt = fmt.Sprintf("Approve %d deals?", len(cmd.IDs))
	}
	confirmed := g.confirm(prompt, cmd.Yes)
	err = a.BatchApprove(ctx, commands.BatchApproveInput{IDs: cmd.IDs, Confirmed: confirmed})
	if errors.Is(err, commands.ErrConfirmationRequired) {
		fmt.Fprintln(g.out(), "cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out(), "deals approved")
	return nil
}

type languagesCmd struct{}

func (cmd *languagesCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	languages, err := a.API().EnabledLanguages(ctx)
	if err != nil {
		return err
	}
	if g.Output != "table" {
		return printValue(g.out(), g.Output, languages)
	}
	rows := make([][]string, 0, len(languages))
	for _, lang := range languages {
		rows = append(rows, []string{lang.Code, lang.Name, lang.NativeName})
	}
	return printTable(g.out(), []string{"code", "name", "nativeName"}, rows)
}

type reportCmd struct {
	ID  string `arg:"" help:"City report id."`
	Out string `short:"O" required:"" type:"path" help:"File to write the report to."`
}

func (cmd *reportCmd) Run(ctx context.Context, g *Globals) error {
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	file, err := os.Create(cmd.Out) //nolint:gosec
	if err != nil {
		return fmt.Errorf("rensightsctl: create %s: %w", cmd.Out, err)
	}
	if err := a.API().DownloadCityReport(ctx, cmd.ID, file); err != nil {
		file.Close()
		_ = os.Remove(cmd.Out)
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "saved %s report to %s\n", adminapi.ResourceCityReports, cmd.Out)
	return nil
}
