package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/schooldir/internal/accounts"
	"github.com/dropDatabas3/schooldir/internal/schools"
)

func newSchoolsCmd(opts *rootOptions) *cobra.Command {
	sc := &cobra.Command{
		Use:   "schools",
		Short: "Manage the school catalogue",
	}

	var file string
	imp := &cobra.Command{
		Use:   "import",
		Short: "Import schools from a YAML file",
		Long: `Import schools from a YAML file with the shape:

  schools:
    - name: Escuela Normal
      city: Rosario
      region: Santa Fe
      kind: public
      website: https://normal.edu.ar

Every entry is validated before anything is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return errors.New("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			in, err := schools.ParseImport(f)
			if err != nil {
				return err
			}

			e, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.schools.Import(cmd.Context(), accounts.ActorCLI, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d school(s)\n", n)
			return nil
		},
	}
	imp.Flags().StringVar(&file, "file", "", "YAML file to import")

	sc.AddCommand(imp)
	return sc
}
