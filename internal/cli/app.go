// Package cli implements huddlectl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/noah-isme/huddle-api/pkg/config"
	"github.com/noah-isme/huddle-api/pkg/database"
	"github.com/noah-isme/huddle-api/pkg/localstore"
)

var (
	// Version is set at build time.
	Version = "dev"

	colorHeader = color.New(color.Bold)
	colorGood   = color.New(color.FgGreen)
	colorBad    = color.New(color.FgRed)
	colorMuted  = color.New(color.FgWhite, color.Faint)
)

// App holds the CLI state shared by every command.
type App struct {
	cfg     *config.Config
	out     io.Writer
	root    *cobra.Command
	noColor bool

	openDB    func(ctx context.Context) (*sqlx.DB, error)
	openStore func(path string) (*localstore.Store, error)
}

// NewApp wires the command tree. Output goes to out, or stdout when nil.
func NewApp(cfg *config.Config, out io.Writer) *App {
	if out == nil {
		out = os.Stdout
	}
	a := &App{
		cfg:       cfg,
		out:       out,
		openStore: localstore.Open,
	}
	a.openDB = func(ctx context.Context) (*sqlx.DB, error) {
		return database.NewPostgres(ctx, a.cfg.Database)
	}

	a.root = &cobra.Command{
		Use:           "huddlectl",
		Short:         "Operator tools for the huddle API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				color.NoColor = true
			}
		},
	}
	a.root.SetOut(out)
	a.root.SetErr(out)
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.clockCmd())
	a.root.AddCommand(a.overlapCmd())
	a.root.AddCommand(a.migrateCmd())
	a.root.AddCommand(a.snapshotCmd())
	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "huddlectl %s\n", Version)
		},
	}
}

// Execute runs the command named by args.
func (a *App) Execute(args []string) error {
	a.root.SetArgs(args)
	return a.root.Execute()
}

func (a *App) printf(c *color.Color, format string, args ...interface{}) {
	_, _ = c.Fprintf(a.out, format, args...)
}
