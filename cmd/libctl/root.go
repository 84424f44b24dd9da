package main

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/shelfkeeper/internal/analytics"
	"github.com/mmynk/shelfkeeper/internal/auth"
	"github.com/mmynk/shelfkeeper/internal/catalog"
	"github.com/mmynk/shelfkeeper/internal/circulation"
	"github.com/mmynk/shelfkeeper/internal/config"
	"github.com/mmynk/shelfkeeper/internal/membership"
	"github.com/mmynk/shelfkeeper/internal/storage/sqlite"
	"github.com/mmynk/shelfkeeper/pkg/logging"
)

// app holds the components every subcommand works with.
type app struct {
	cfg         *config.Config
	store       *sqlite.SQLiteStore
	catalog     *catalog.Catalog
	members     *membership.Registry
	circulation *circulation.Engine
	analytics   *analytics.Engine
	auth        *auth.PasswordAuthenticator
}

func (a *app) open(dbPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return err
	}
	engine, err := circulation.New(store, cfg.Circulation())
	if err != nil {
		store.Close()
		return err
	}

	a.cfg = cfg
	a.store = store
	a.catalog = catalog.New(store)
	a.members = membership.New(store, cfg.FineBlockThreshold)
	a.circulation = engine
	a.analytics = analytics.New(store)
	a.auth = auth.NewPasswordAuthenticator(store)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}

// newRootCmd builds the command tree. The caller closes a when done.
func newRootCmd(a *app) *cobra.Command {
	var dbPath string

	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Operate the library circulation database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(dbPath)
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database file (default $DB_PATH)")

	root.AddCommand(
		newBookCmd(a),
		newMemberCmd(a),
		newLoanCmd(a),
		newLibrarianCmd(a),
		newSweepCmd(a),
		newStatsCmd(a),
		newReportCmd(a),
	)
	return root
}
