package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/xraph/steward/change"
	"github.com/xraph/steward/exchange"
	"github.com/xraph/steward/internal/cli"
)

var (
	exportOutput string
	importFile   string
	importDry    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every access entity on the server",
	Long: `Write users, roles, quotas, row policies and settings profiles to a
versioned document that import can recreate on another server.`,
	Example: `  steward export -o access.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		doc, err := s.eng.Export(s.actorContext(ctx))
		if err != nil {
			return cli.GeneralError("exporting entities", err)
		}

		if exportOutput == "" || exportOutput == "-" {
			return exchange.Encode(os.Stdout, doc)
		}
		f, err := os.Create(exportOutput)
		if err != nil {
			return cli.GeneralError("creating output file", err)
		}
		if err := exchange.Encode(f, doc); err != nil {
			_ = f.Close()
			return cli.GeneralError("writing export", err)
		}
		if err := f.Close(); err != nil {
			return cli.GeneralError("writing export", err)
		}
		s.logger.Info("export written", "path", exportOutput, "entities", doc.Len())
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create the entities of an export document",
	Long: `Plan one CREATE change per entity in an export document, then execute
them in dependency order: settings profiles, roles, users, quotas and row
policies.`,
	Example: `  steward import -f access.json --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return cli.InputError("opening import file", err)
		}
		doc, err := exchange.Decode(f)
		_ = f.Close()
		if err != nil {
			return cli.InputError("reading import file", err)
		}

		ctx := cmd.Context()
		s, err := openSession(ctx, false)
		if err != nil {
			return err
		}
		defer s.close()

		changes, err := s.eng.Import(ctx, doc, true)
		if err != nil {
			return cli.InputError("planning import", err)
		}
		if importDry && jsonFlag {
			return printJSON(change.RedactAll(changes))
		}
		if !jsonFlag {
			renderer().Changes(changes)
		}
		if importDry || len(changes) == 0 {
			return nil
		}
		return stageAndExecute(s.actorContext(ctx), s, changes)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")

	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "export document to import")
	importCmd.Flags().BoolVar(&importDry, "dry-run", false, "print the changes without executing them")
	_ = importCmd.MarkFlagRequired("file")
}
