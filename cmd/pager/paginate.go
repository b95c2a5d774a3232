package main

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"resumepager/internal/pagination"
)

type paginateOptions struct {
	dataPath        string
	measurementPath string
	pageHeight      float64
	margin          float64
	continuationTop float64
	minSplitHeight  float64
}

func newPaginateCmd() *cobra.Command {
	defaults := pagination.DefaultOptions()
	opts := &paginateOptions{
		pageHeight:      defaults.PageHeight,
		margin:          defaults.BottomMargin,
		continuationTop: defaults.ContinuationTop,
		minSplitHeight:  defaults.MinSplitHeight,
	}
	cmd := &cobra.Command{
		Use:   "paginate",
		Short: "Pack a resume into pages using a measurement file",
		Long: `Pack a resume into pages using block heights measured elsewhere,
for example by the browser editor. No browser is started.

Example:
  pager paginate --data resume.json --measurement measurement.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPaginate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataPath, "data", "", "Resume JSON file, - for stdin (default: demo resume)")
	cmd.Flags().StringVar(&opts.measurementPath, "measurement", "", "Measurement JSON file")
	cmd.Flags().Float64Var(&opts.pageHeight, "page-height", opts.pageHeight, "Page height in CSS pixels")
	cmd.Flags().Float64Var(&opts.margin, "bottom-margin", opts.margin, "Reserved space at the bottom of each page")
	cmd.Flags().Float64Var(&opts.continuationTop, "continuation-top", opts.continuationTop, "Content start on continuation pages")
	cmd.Flags().Float64Var(&opts.minSplitHeight, "min-split-height", opts.minSplitHeight, "Smallest fragment a split block may leave on a page")
	_ = cmd.MarkFlagRequired("measurement")
	return cmd
}

func runPaginate(cmd *cobra.Command, opts *paginateOptions) error {
	packOpts := pagination.DefaultOptions()
	packOpts.PageHeight = opts.pageHeight
	packOpts.BottomMargin = opts.margin
	packOpts.ContinuationTop = opts.continuationTop
	packOpts.MinSplitHeight = opts.minSplitHeight
	if err := packOpts.Validate(); err != nil {
		return errors.Wrap(err, "invalid pagination options")
	}

	data, _, err := readData(cmd, opts.dataPath)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, opts.measurementPath)
	if err != nil {
		return err
	}
	var m pagination.Measurement
	if err := json.Unmarshal(raw, &m); err != nil {
		return errors.Wrapf(err, "decode measurement %s", opts.measurementPath)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrapf(err, "invalid measurement %s", opts.measurementPath)
	}
	if m.DocumentHeight <= 0 {
		m.DocumentHeight = m.Extent()
	}

	layout := pagination.Pack(data, m, packOpts)
	return writeJSON(cmd.OutOrStdout(), layout)
}
