// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/feedback/internal/app"
	"github.com/go-arcade/feedback/internal/engine/importer"
	"github.com/go-arcade/feedback/pkg/metrics"
	"github.com/go-arcade/feedback/pkg/version"
	"github.com/spf13/cobra"
)

const lockPoll = 2 * time.Second

var (
	configFile  string
	dumpMetrics bool
)

var rootCmd = &cobra.Command{
	Use:          "feedbackctl",
	Short:        "feedbackctl installs, migrates and inspects the feedback database",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// withApp assembles the application, runs fn with a context cancelled on
// SIGINT/SIGTERM and tears the application down afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, cleanup, err := initApp(configFile)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fn(ctx, a); err != nil {
		return err
	}
	if dumpMetrics {
		return metrics.WriteText(cmd.OutOrStdout(), a.Metrics)
	}
	return nil
}

// locked runs fn while holding the setup lock
func locked(ctx context.Context, a *app.App, fn func() error) error {
	if err := a.Lock.AcquireWait(ctx, lockPoll); err != nil {
		return err
	}
	defer func() {
		_ = a.Lock.Release(context.WithoutCancel(ctx))
	}()
	return fn()
}

func printReport(cmd *cobra.Command, r *importer.Report) {
	if r == nil {
		return
	}
	if r.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "legacy import: nothing to do")
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "legacy import: %d feedbacks, %d replies, %d options, %d custom groups, %d group settings\n",
		r.Feedbacks, r.Replies, r.Options, r.CustomGroups, r.GroupSettings)
	for _, e := range r.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", e)
	}
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create missing tables, run pending migrations and import legacy data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out, err := a.Setup.Run(ctx)
			if out != nil && out.Migration != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "schema version: %s (applied %v)\n", out.Migration.Marker, out.Migration.Applied)
			}
			if out != nil {
				printReport(cmd, out.Import)
			}
			return err
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run migration steps between two versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if to == "" {
				to = a.Conf.Setup.TargetVersion
			}
			return locked(ctx, a, func() error {
				if err := a.Schema.EnsureSchema(ctx); err != nil {
					return err
				}
				if from == "" {
					installed, err := a.Runner.InstalledVersion(ctx)
					if err != nil {
						return err
					}
					from = installed
				}
				result, err := a.Runner.Migrate(ctx, from, to)
				if result != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "schema version: %s (applied %v)\n", result.Marker, result.Applied)
				}
				return err
			})
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import legacy feedbacks and classification lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return locked(ctx, a, func() error {
				var (
					report *importer.Report
					err    error
				)
				if force {
					report, err = a.Importer.RunFullMigration(ctx)
				} else {
					report, err = a.Importer.ImportIfNeeded(ctx)
				}
				printReport(cmd, report)
				return err
			})
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed schema version, missing tables and import state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			installed, err := a.Runner.InstalledVersion(ctx)
			if err != nil {
				return err
			}
			done, err := a.Importer.Completed(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "installed version: %s\n", installed)
			fmt.Fprintf(out, "target version:    %s\n", a.Conf.Setup.TargetVersion)
			fmt.Fprintf(out, "missing tables:    %v\n", a.Schema.Missing(ctx))
			fmt.Fprintf(out, "legacy imported:   %t\n", done)
			return nil
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or write a setting",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a setting's stored value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			value, ok, err := a.Repos.Setting.GetUncached(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %s is not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		noAutoload, _ := cmd.Flags().GetBool("no-autoload")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			return a.Repos.Setting.Set(ctx, args[0], args[1], !noAutoload)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.toml", "conf file path, e.g. -c ./conf.d/config.toml")
	rootCmd.PersistentFlags().BoolVar(&dumpMetrics, "metrics", false, "print feedback_* metrics after the command")

	migrateCmd.Flags().String("from", "", "version to migrate from (default: installed version)")
	migrateCmd.Flags().String("to", "", "version to migrate to (default: setup.targetVersion)")
	importCmd.Flags().Bool("force", false, "import even if the completion marker is set")
	settingsSetCmd.Flags().Bool("no-autoload", false, "store the setting outside the autoload cache")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(setupCmd, migrateCmd, importCmd, statusCmd, settingsCmd, version.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
