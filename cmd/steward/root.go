package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/steward/internal/cli"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string

	// Persistent flags
	cfgFile  string
	actor    string
	verbose  int
	quiet    bool
	jsonFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "steward",
	Short: "Access management for ClickHouse",
	Long: `steward - Access management for ClickHouse

Steward plans grant and role changes as reviewable statements, executes them
one at a time, and records every attempt in an audit log.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}
		logger().Debug("configuration loaded", slog.String("path", configPath))
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command group IDs
const (
	groupAccess  = "access"
	groupAudit   = "audit"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover steward.yaml)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "operator recorded in the audit log (default: config actor, then $USER)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print machine-readable JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupAccess, Title: "Access:"},
		&cobra.Group{ID: groupAudit, Title: "Audit:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	catalogCmd.GroupID = groupAccess
	effectiveCmd.GroupID = groupAccess
	planCmd.GroupID = groupAccess
	applyCmd.GroupID = groupAccess
	exportCmd.GroupID = groupAccess
	importCmd.GroupID = groupAccess
	rootCmd.AddCommand(catalogCmd, effectiveCmd, planCmd, applyCmd, exportCmd, importCmd)

	auditCmd.GroupID = groupAudit
	rootCmd.AddCommand(auditCmd)

	serveCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(serveCmd, versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// logger returns a text logger on stderr whose level follows -v and -q.
func logger() *slog.Logger {
	level := slog.LevelWarn
	switch {
	case quiet:
		level = slog.LevelError
	case verbose == 1:
		level = slog.LevelInfo
	case verbose > 1:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
