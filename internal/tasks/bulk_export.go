package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/rehearse/internal/formatter"
	"github.com/desertthunder/rehearse/internal/models"
	"github.com/desertthunder/rehearse/internal/ordering"
	"github.com/desertthunder/rehearse/internal/services"
	"github.com/desertthunder/rehearse/internal/shared"
)

// BulkExportOpts contains configuration for bulk repertoire exports.
type BulkExportOpts struct {
	Format     formatter.Format   // Export format (default: csv)
	OutputDir  string             // Base output directory (default: rehearse_export_{epoch})
	NumWorkers int                // Concurrent workers (default: 3, max 10)
	RateLimit  float64            // Backend requests per second (default: 5)
	Sort       ordering.SortState // Song order inside each file
}

// RepertoireExportResult is the outcome for one repertoire.
type RepertoireExportResult struct {
	RepertoireID int
	Name         string
	Songs        int
	File         string
	Success      bool
	Error        error
}

// BulkExportResult summarises a bulk export.
type BulkExportResult struct {
	TotalRepertoires  int
	SuccessfulExports int
	FailedExports     int
	OutputDirectory   string
	ManifestPath      string
	Results           []RepertoireExportResult
}

type exportJob struct {
	repertoire models.Repertoire
	songs      []models.Song
}

type manifestEntry struct {
	RepertoireID int    `json:"repertoire_id"`
	Name         string `json:"name"`
	Songs        int    `json:"songs"`
	File         string `json:"file,omitempty"`
	Error        string `json:"error,omitempty"`
}

type manifest struct {
	Format     formatter.Format `json:"format"`
	Sort       string           `json:"sort"`
	ExportedAt time.Time        `json:"exported_at"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []manifestEntry  `json:"results"`
}

// BulkExport writes one file per repertoire concurrently with rate limiting and progress tracking.
//
// An empty ids exports every repertoire. Songs are fetched one repertoire at a time
// through the limiter; rendering and file writes run on a worker pool. Individual failures
// are recorded in the result and do not stop the export. A manifest summarising the run
// is written last.
func BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	srv services.Service,
	ids []int,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if srv == nil {
		return nil, fmt.Errorf("%w: service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatCSV
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("rehearse_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Sort.Key == (ordering.SortKey{}) && opts.Sort.History == nil {
		opts.Sort = ordering.DefaultSort()
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	sendProgress(prog, fetchingRepertoiresUpdate(len(ids)))
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	reps, err := srv.ListRepertoires(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list repertoires: %w", err)
	}

	targets, missing := selectRepertoires(reps, ids)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(targets) + len(missing)
	result := &BulkExportResult{
		TotalRepertoires: total,
		OutputDirectory:  opts.OutputDir,
		Results:          make([]RepertoireExportResult, 0, total),
	}

	jobs := make(chan exportJob, len(targets))
	results := make(chan RepertoireExportResult, total)

	for _, id := range missing {
		results <- RepertoireExportResult{
			RepertoireID: id,
			Name:         fmt.Sprintf("Unknown (%d)", id),
			Error:        fmt.Errorf("%w: %d", shared.ErrRepertoireNotFound, id),
		}
	}

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, rep := range targets {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, exportingRepertoireUpdate(i+1, len(targets), rep.Name))

			id := rep.ID
			songs, err := srv.ListSongs(ctx, &id)
			if err != nil {
				results <- RepertoireExportResult{
					RepertoireID: rep.ID,
					Name:         rep.Name,
					Error:        fmt.Errorf("failed to fetch songs: %w", err),
				}
				continue
			}

			jobs <- exportJob{repertoire: rep, songs: songs}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, total, res))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, total, res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, opts, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// selectRepertoires resolves ids against reps, keeping the order of ids.
// An empty ids selects every repertoire in list order.
func selectRepertoires(reps []models.Repertoire, ids []int) (found []models.Repertoire, missing []int) {
	if len(ids) == 0 {
		return reps, nil
	}

	byID := make(map[int]models.Repertoire, len(reps))
	for _, r := range reps {
		byID[r.ID] = r
	}
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			found = append(found, r)
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// exportWorker is a worker goroutine that renders and writes repertoires from the jobs channel.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- RepertoireExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportRepertoire(job, opts)
	}
}

// exportRepertoire renders one repertoire in the requested order and writes it.
func exportRepertoire(j exportJob, opts BulkExportOpts) RepertoireExportResult {
	result := RepertoireExportResult{
		RepertoireID: j.repertoire.ID,
		Name:         j.repertoire.Name,
		Songs:        len(j.songs),
	}

	seq := ordering.ComputeRenderSequence(j.songs, "", opts.Sort, nil)
	export := formatter.NewExport(j.repertoire, opts.Sort.String(), seq)

	path, err := formatter.WriteExport(export, opts.Format, opts.OutputDir)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}

	result.File = path
	result.Success = true
	return result
}

func writeManifest(result *BulkExportResult, opts BulkExportOpts, path string) error {
	m := manifest{
		Format:     opts.Format,
		Sort:       opts.Sort.String(),
		ExportedAt: time.Now(),
		Successful: result.SuccessfulExports,
		Failed:     result.FailedExports,
		Results:    make([]manifestEntry, 0, len(result.Results)),
	}
	for _, r := range result.Results {
		entry := manifestEntry{RepertoireID: r.RepertoireID, Name: r.Name, Songs: r.Songs, File: r.File}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Results = append(m.Results, entry)
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
