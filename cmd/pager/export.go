package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var dataPath, outputDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Paginate a resume and write it as a PDF",
		Long: `Measure and paginate a resume, capture every page and write the
assembled PDF into the output directory. The file is named after the
person on the resume.

Example:
  pager export --data resume.json --output-dir ./out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, _, err := readData(cmd, dataPath)
			if err != nil {
				return err
			}
			eng, err := root.openEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer eng.Close()

			ctx := cmd.Context()
			// 导出不使用演示占位内容。
			layout, err := eng.Paginator.Paginate(ctx, data, false)
			if err != nil {
				return errors.Wrap(err, "paginate resume")
			}
			if layout.Fallback {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: measurement failed, exporting a single unpaginated page")
			}

			result, err := eng.Exporter.Export(ctx, data, layout)
			if err != nil {
				return errors.Wrap(err, "export resume")
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return errors.Wrapf(err, "create %s", outputDir)
			}
			target := filepath.Join(outputDir, result.FileName)
			if err := os.WriteFile(target, result.PDF, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", target)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d pages)\n", target, result.Pages)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "Resume JSON file, - for stdin (default: demo resume)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for the PDF")
	return cmd
}
