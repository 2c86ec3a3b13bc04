package main

import (
	"context"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rehearse/internal/formatter"
	"github.com/desertthunder/rehearse/internal/tasks"
)

// exportOpts merges export flags over the [export] config section.
func (r *Runner) exportOpts(cmd *cli.Command) (tasks.BulkExportOpts, error) {
	cfg := r.config.Export

	format := cfg.Format
	if cmd.IsSet("format") {
		format = cmd.String("format")
	}
	f, err := formatter.ParseFormat(format)
	if err != nil {
		return tasks.BulkExportOpts{}, err
	}

	sort, err := sortState(cmd)
	if err != nil {
		return tasks.BulkExportOpts{}, err
	}

	opts := tasks.BulkExportOpts{
		Format:     f,
		OutputDir:  cfg.OutputDir,
		NumWorkers: cfg.Workers,
		RateLimit:  cfg.RateLimit,
		Sort:       sort,
	}
	if cmd.IsSet("output") {
		opts.OutputDir = cmd.String("output")
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}
	return opts, nil
}

// Export writes each selected repertoire to its own file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.requireBackend()
	if err != nil {
		return err
	}
	opts, err := r.exportOpts(cmd)
	if err != nil {
		return err
	}
	ids := cmd.IntSlice("repertoire")

	r.logger.Info("starting export", "format", opts.Format, "repertoires", len(ids), "sort", opts.Sort.String())

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(r.output),
		progressbar.OptionSetDescription("Exporting"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase != tasks.ExportRepertoire {
				continue
			}
			bar.ChangeMax(update.Total)
			if res, ok := update.Data.(tasks.RepertoireExportResult); ok {
				bar.Add(1)
				if !res.Success {
					r.logger.Warn("export failed", "repertoire", res.Name, "error", res.Error)
				}
			} else {
				bar.Describe(update.Message)
			}
		}
	}()

	result, err := tasks.BulkExport(ctx, progressCh, srv, ids, opts)
	close(progressCh)
	<-done
	bar.Finish()
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Exported: %d/%d repertoires\n", result.SuccessfulExports, result.TotalRepertoires)
	r.writePlain("Output:   %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlain("\nFailed (%d):\n", result.FailedExports)
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %v\n", res.Name, res.Error)
			}
		}
	}
	return nil
}
