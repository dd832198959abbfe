// Copyright (c) 2026 MatBedoyan
// Rowkeeper - active record data layer for the ranking application
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for Rowkeeper using the Cobra
// library. It defines the root command, the housekeeping subcommands
// (maintenance, backup, restore, seed, config), flags, and the entry point.
package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MatBedoyan/rowkeeper/alert"
	"github.com/MatBedoyan/rowkeeper/buildvars"
	"github.com/MatBedoyan/rowkeeper/internal/backup"
	"github.com/MatBedoyan/rowkeeper/internal/config"
	"github.com/MatBedoyan/rowkeeper/internal/db"
	"github.com/MatBedoyan/rowkeeper/internal/i18n"
	"github.com/MatBedoyan/rowkeeper/internal/logging"
	"github.com/MatBedoyan/rowkeeper/model"
	"github.com/MatBedoyan/rowkeeper/record"
	"github.com/MatBedoyan/rowkeeper/session"
)

var (
	cfgFile string
	appCfg  config.Config
)

// configDefaults are used when a setting is absent from the config file,
// the environment, and the flags.
var configDefaults = map[string]any{
	"database.type": "sqlite",
	"database.dsn":  "./rowkeeper.db",
	"language":      "en",
	"debug":         false,
}

// main is the entry point of the application.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

// newRootCmd creates and configures a new root cobra command. This is also
// used to create fresh instances for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rowkeeper",
		Short:        i18n.T("cli.short"),
		Long:         i18n.T("cli.long"),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig[config.Config](cmd, configDefaults, &cfgFile)
			if err != nil {
				return err
			}
			appCfg = cfg
			logging.SetDebug(cfg.Debug)
			record.SetDebug(cfg.Debug)
			i18n.Init(cfg.Language)
			if err := db.InitDB(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return fmt.Errorf("%s", i18n.T("config.error_init_db", err))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newMaintenanceCmd())
	cmd.AddCommand(newBackupCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Version = buildvars.VersionOrDefault("dev")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is rowkeeper.yaml in the config or current dir)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "./rowkeeper.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("lang", "en", `Message language ("en", "es")`)
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging, including SQL statements")

	return cmd
}

func newMaintenanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: i18n.T("maintenance.short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := db.RunDBMaintenance(appCfg.Database.Type, appCfg.Database.DSN); err != nil {
				return err
			}
			logging.Infof("%s", i18n.T("maintenance.done", appCfg.Database.Type))
			return nil
		},
	}
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: i18n.T("backup.short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}
			data, err := backup.Export(cmd.Context(), db.Handle())
			if err != nil {
				return err
			}
			f, err := os.Create(file)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			if err := backup.WriteBackup(data, f); err != nil {
				return err
			}
			logging.Infof("%s", i18n.T("backup.done", file))
			return nil
		},
	}
	cmd.Flags().String("file", "rowkeeper-backup.json.zst", "Backup file to write")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: i18n.T("restore.short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := cmd.Flags().GetString("file")
			if err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			data, err := backup.ReadBackup(f)
			if err != nil {
				return err
			}
			if err := backup.Import(cmd.Context(), db.Handle(), data); err != nil {
				return err
			}
			logging.Infof("%s", i18n.T("restore.done", file))
			return nil
		},
	}
	cmd.Flags().String("file", "rowkeeper-backup.json.zst", "Backup file to read")
	return cmd
}

// newConfigCmd groups configuration management. `config init` persists the
// resolved settings (flags, environment, defaults) to the user config file
// so subsequent runs have a file to inspect and edit.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: i18n.T("config.short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: i18n.T("config.init_short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteConfigFile(&appCfg, false); err != nil {
				return err
			}
			logging.Infof("%s", i18n.T("config.saved"))
			return nil
		},
	})
	return cmd
}

// newSeedCmd inserts a handful of demo users and scores through the record
// mapper, recording alerts the way the web layer would.
func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: i18n.T("seed.short"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			users := record.NewMapper[*model.User](db.Handle())
			scores := record.NewMapper[*model.Score](db.Handle())
			rec := alert.NewRecorder(session.NewMemoryStore())

			demo := []struct {
				name, email string
				points      int64
			}{
				{"Ada", "ada@example.com", 1200},
				{"Linus", "linus@example.com", 950},
				{"Grace", "grace@example.com", 1430},
			}

			var userCount, scoreCount int
			for _, d := range demo {
				u := &model.User{
					Name:  sql.NullString{String: d.name, Valid: true},
					Email: sql.NullString{String: d.email, Valid: true},
				}
				if err := users.Save(ctx, u); err != nil {
					if errors.Is(err, record.ErrDuplicate) {
						rec.Add(alert.Warning, fmt.Sprintf("%s already exists", d.email))
						continue
					}
					return err
				}
				userCount++
				rec.Add(alert.Success, i18n.T("seed.user_created", d.name))

				s := &model.Score{
					UserID: sql.NullInt64{Int64: u.ID, Valid: true},
					Points: sql.NullInt64{Int64: d.points, Valid: true},
				}
				if err := scores.Save(ctx, s); err != nil {
					return err
				}
				scoreCount++
				if err := rec.AddFlash(alert.Info, i18n.T("seed.score_created", d.points, u.ID)); err != nil {
					return err
				}
			}

			alerts, err := rec.AllAndClear()
			if err != nil {
				return err
			}
			for _, a := range alerts {
				logging.Infof("%s: %s", a.Kind, a.Message)
			}
			logging.Infof("%s", i18n.T("seed.done", userCount, scoreCount))
			return nil
		},
	}
}
