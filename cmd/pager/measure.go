package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMeasureCmd(root *rootOptions) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Measure a resume in a headless browser",
		Long: `Render a resume as a single page in a headless browser and print
the measured blocks. The output can be fed back into "pager paginate".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, demo, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			eng, err := root.openEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer eng.Close()

			m, err := eng.Measurer.Measure(cmd.Context(), data, demo)
			if err != nil {
				return errors.Wrap(err, "measure resume")
			}
			return writeJSON(cmd.OutOrStdout(), m)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Resume JSON file, - for stdin (default: demo resume)")
	return cmd
}
