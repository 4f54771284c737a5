package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/tasks"
	"github.com/desertthunder/practicelog/internal/ui"
	"github.com/urfave/cli/v3"
)

// PiecesList prints the catalog, optionally filtered by title and composer.
func (r *Runner) PiecesList(ctx context.Context, cmd *cli.Command) error {
	practice, err := r.practiceService(cmd)
	if err != nil {
		return err
	}

	pieces, err := practice.ListPieces(ctx, models.PieceFilter{
		Title:    cmd.String("title"),
		Composer: cmd.String("composer"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(pieces, true)
	}

	rows := make([][]string, 0, len(pieces))
	for _, p := range pieces {
		rows = append(rows, []string{strconv.FormatInt(p.PieceID, 10), p.Title, p.Composer})
	}

	r.writePlain("%s\n", ui.Styles.Title(fmt.Sprintf("Pieces (%d)", len(pieces))))
	return r.writePlain("%s\n", ui.Styles.Table([]string{"ID", "Title", "Composer"}, rows))
}

// PiecesDelete removes a piece that no practice session references.
func (r *Runner) PiecesDelete(ctx context.Context, cmd *cli.Command) error {
	practice, err := r.practiceService(cmd)
	if err != nil {
		return err
	}

	id := cmd.Int64("id")
	if _, err := practice.DeletePiece(ctx, id); err != nil {
		return err
	}

	r.logger.Info("deleted piece", "piece_id", id)
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Deleted piece %d", id)))
}

// PiecesImport seeds the catalog from a file or URL.
//
// --file takes precedence over --url; with neither, import.source_url is fetched.
func (r *Runner) PiecesImport(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore(cmd)
	if err != nil {
		return err
	}
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	var catalog *tasks.Catalog
	if path := cmd.String("file"); path != "" {
		r.logger.Info("reading catalog", "file", path)
		catalog, err = tasks.ReadCatalog(path)
	} else {
		url := cmd.String("url")
		if url == "" {
			url = config.Import.SourceURL
		}
		if url == "" {
			url = tasks.DefaultCatalogURL
		}
		r.logger.Info("downloading catalog", "url", url)
		catalog, err = tasks.FetchCatalog(ctx, r.httpClient, url)
	}
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	importer := tasks.NewCatalogImporter(store.Pieces, r.logger)
	result, err := importer.Import(ctx, catalog, tasks.ImportOptions{All: cmd.Bool("all")}, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Imported %d pieces from %d composers", result.Inserted, result.Composers)))
	if result.Duplicates > 0 {
		r.writePlain("%s\n", ui.Styles.Help(fmt.Sprintf("%d already in the catalog", result.Duplicates)))
	}
	if result.Skipped > 0 {
		r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("%d entries without a title or composer skipped", result.Skipped)))
	}
	for _, f := range result.Failed {
		r.writePlain("%s\n", ui.Styles.Err(fmt.Sprintf("%s - %s: %v", f.Composer, f.Title, f.Err)))
	}
	return nil
}
