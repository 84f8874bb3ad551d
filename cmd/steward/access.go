package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xraph/steward/catalog"
	"github.com/xraph/steward/change"
	"github.com/xraph/steward/internal/cli"
)

var (
	planFile  string
	applyFile string
	applyDry  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the privilege hierarchy",
	Long:  `Print every grantable capability with the scope kinds it may be granted at.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := catalog.Default()
		if jsonFlag {
			return printJSON(cat.Roots())
		}
		renderer().Catalog(cat)
		return nil
	},
}

var effectiveCmd = &cobra.Command{
	Use:   "effective <identity>",
	Short: "Show the effective grants of a user or role",
	Long:  `Show every grant an identity holds, directly or through its roles, with where each one comes from.`,
	Example: `  # Effective grants of a user
  steward effective alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		entries, err := s.eng.EffectiveSummary(ctx, args[0])
		if err != nil {
			return cli.GeneralError("resolving effective grants", err)
		}
		if jsonFlag {
			return printJSON(entries)
		}
		renderer().Effective(args[0], entries)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the changes a desired-state file would make",
	Long: `Diff the grants and roles in a desired-state file against the server and
print the statements that would bring it about. Nothing is executed.`,
	Example: `  steward plan -f access.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		changes, err := planDesired(ctx, s, planFile)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(change.RedactAll(changes))
		}
		renderer().Changes(changes)
		return nil
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a desired-state file",
	Long: `Plan the changes in a desired-state file, stage them and execute them in
order. Execution stops at the first failing statement; changes after it are
not attempted.`,
	Example: `  # Review, then apply
  steward apply -f access.yaml --dry-run
  steward apply -f access.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		changes, err := planDesired(ctx, s, applyFile)
		if err != nil {
			return err
		}
		if applyDry && jsonFlag {
			return printJSON(change.RedactAll(changes))
		}
		if !jsonFlag {
			renderer().Changes(changes)
		}
		if applyDry || len(changes) == 0 {
			return nil
		}
		return stageAndExecute(s.actorContext(ctx), s, changes)
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "desired-state file")
	_ = planCmd.MarkFlagRequired("file")

	applyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "desired-state file")
	applyCmd.Flags().BoolVar(&applyDry, "dry-run", false, "print the changes without executing them")
	_ = applyCmd.MarkFlagRequired("file")
}

func planDesired(ctx context.Context, s *session, path string) ([]*change.Change, error) {
	desired, err := cli.LoadDesired(path)
	if err != nil {
		return nil, cli.InputError("reading desired state", err)
	}
	var changes []*change.Change
	for _, d := range desired {
		cs, err := s.eng.Plan(ctx, d)
		if err != nil {
			return nil, cli.GeneralError(fmt.Sprintf("planning %s %s", d.Type, d.Name), err)
		}
		changes = append(changes, cs...)
	}
	return changes, nil
}

// stageAndExecute queues changes and runs one execution pass over them.
func stageAndExecute(ctx context.Context, s *session, changes []*change.Change) error {
	for _, c := range changes {
		changeID, err := s.eng.Stage(ctx, c)
		if err != nil {
			return cli.GeneralError("staging change", err)
		}
		c.ID = changeID
	}

	report, err := s.eng.Execute(ctx)
	if err != nil {
		return cli.GeneralError("executing changes", err)
	}
	if jsonFlag {
		if err := printJSON(report); err != nil {
			return err
		}
	} else {
		renderer().Report(report)
	}
	if !report.OK() {
		return cli.ExecutionError("execution stopped", errors.New(report.Summary()))
	}
	return nil
}
