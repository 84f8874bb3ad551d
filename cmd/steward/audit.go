package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xraph/steward/audit"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/entity"
	"github.com/xraph/steward/internal/cli"
)

var (
	auditActor      string
	auditEntityType string
	auditEntityName string
	auditChangeType string
	auditFailed     bool
	auditSince      time.Duration
	auditLimit      int
	auditOffset     int

	purgeOlderThan time.Duration
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and maintain the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries, most recent first",
	Example: `  # Failed changes of the last day
  steward audit list --failed --since 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		filter := &audit.QueryFilter{
			Actor:      auditActor,
			EntityType: entity.Type(auditEntityType),
			EntityName: auditEntityName,
			ChangeType: change.Type(auditChangeType),
			Limit:      auditLimit,
			Offset:     auditOffset,
		}
		if auditFailed {
			failed := false
			filter.Success = &failed
		}
		if auditSince > 0 {
			after := time.Now().Add(-auditSince)
			filter.After = &after
		}

		entries, err := s.eng.AuditLog(ctx, filter)
		if err != nil {
			return cli.GeneralError("querying audit log", err)
		}
		if jsonFlag {
			return printJSON(entries)
		}
		renderer().AuditEntries(entries)
		return nil
	},
}

var auditStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		st, err := s.eng.AuditStats(ctx)
		if err != nil {
			return cli.GeneralError("computing audit statistics", err)
		}
		if jsonFlag {
			return printJSON(st)
		}
		renderer().Stats(st)
		return nil
	},
}

var auditPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove audit entries older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if purgeOlderThan > 0 {
			cfg.Audit.Retention = purgeOlderThan
		}
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		n, err := s.eng.PurgeAudit(ctx)
		if err != nil {
			return cli.GeneralError("purging audit log", err)
		}
		if jsonFlag {
			return printJSON(map[string]int64{"purged": n})
		}
		if !quiet {
			fmt.Printf("Purged %d audit entries older than %s.\n", n, cfg.Audit.Retention)
		}
		return nil
	},
}

func init() {
	f := auditListCmd.Flags()
	f.StringVar(&auditActor, "by", "", "only entries by this operator")
	f.StringVar(&auditEntityType, "entity-type", "", "only entries for this entity type (USER, ROLE, ...)")
	f.StringVar(&auditEntityName, "entity", "", "only entries for this entity name")
	f.StringVar(&auditChangeType, "change-type", "", "only entries of this change type (GRANT, REVOKE, ...)")
	f.BoolVar(&auditFailed, "failed", false, "only failed changes")
	f.DurationVar(&auditSince, "since", 0, "only entries newer than this")
	f.IntVar(&auditLimit, "limit", 50, "maximum entries to list")
	f.IntVar(&auditOffset, "offset", 0, "entries to skip")

	auditPurgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "override the configured retention window")

	auditCmd.AddCommand(auditListCmd, auditStatsCmd, auditPurgeCmd)
}
