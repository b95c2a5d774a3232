package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"resumepager/internal/config"
	"resumepager/internal/engine"
	"resumepager/internal/resume"
)

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "pager",
		Short: "Paginate and export resumes from the command line",
		Long: `pager runs the resume pagination engine outside of the API.

It can pack a resume against a measurement file, measure a resume in a
headless browser, or export the paginated resume to a PDF file.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(newPaginateCmd())
	cmd.AddCommand(newMeasureCmd(opts))
	cmd.AddCommand(newExportCmd(opts))
	return cmd
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openEngine 按环境配置启动浏览器。只读取浏览器与分页两节配置。
func (o *rootOptions) openEngine(w io.Writer) (*engine.Engine, error) {
	cfg, err := config.LoadEngine()
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	eng, err := engine.Open(cfg.Browser, cfg.Pagination.Options(), o.logger(w))
	if err != nil {
		return nil, errors.Wrap(err, "open engine")
	}
	return eng, nil
}

// readData 读取简历 JSON；路径为 "-" 时读取标准输入，为空时使用演示数据。
func readData(cmd *cobra.Command, path string) (data resume.Data, demo bool, err error) {
	if path == "" {
		return resume.Demo(), true, nil
	}
	raw, err := readInput(cmd, path)
	if err != nil {
		return data, false, err
	}
	if err = json.Unmarshal(raw, &data); err != nil {
		return data, false, errors.Wrapf(err, "decode resume %s", path)
	}
	if err = data.Validate(); err != nil {
		return data, false, errors.Wrapf(err, "invalid resume %s", path)
	}
	return data, false, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		return raw, errors.Wrap(err, "read stdin")
	}
	raw, err := os.ReadFile(path)
	return raw, errors.Wrapf(err, "read %s", path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encode output")
}
