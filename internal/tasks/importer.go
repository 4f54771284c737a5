package tasks

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/shared"
)

// PieceStore is the part of the piece repository the importer needs.
type PieceStore interface {
	Insert(ctx context.Context, piece *models.Piece) (*models.Piece, error)
	Select(ctx context.Context, filter models.PieceFilter) ([]*models.Piece, error)
}

// ImportOptions controls which composers are imported.
type ImportOptions struct {
	All bool // include composers not flagged popular
}

// ImportFailure is a work the database refused for a reason other than a duplicate.
type ImportFailure struct {
	Title    string
	Composer string
	Err      error
}

// ImportResult summarizes one import run.
type ImportResult struct {
	Composers  int // composers selected
	Candidates int // unique (title, composer) pairs selected
	Inserted   int
	Duplicates int // pairs already in the catalog
	Skipped    int // blank titles or composer names
	Failed     []ImportFailure
}

type pieceKey struct {
	title    string
	composer string
}

// CatalogImporter loads a composer/work catalog into the pieces table.
type CatalogImporter struct {
	pieces PieceStore
	logger *log.Logger
}

func NewCatalogImporter(pieces PieceStore, logger *log.Logger) *CatalogImporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CatalogImporter{pieces: pieces, logger: shared.WithLogger(logger, "task", "catalog_import")}
}

// Import inserts the selected works of catalog.
//
// Pieces already stored are counted as duplicates. A backend failure or a cancelled
// context stops the run and returns the partial result along with the error.
func (i *CatalogImporter) Import(ctx context.Context, catalog *Catalog, opts ImportOptions, progress chan<- ProgressUpdate) (*ImportResult, error) {
	result := &ImportResult{}

	existing, err := i.pieces.Select(ctx, models.PieceFilter{})
	if err != nil {
		return result, err
	}

	seen := make(map[pieceKey]bool, len(existing))
	for _, p := range existing {
		seen[pieceKey{p.Title, p.Composer}] = true
	}

	var candidates []*models.Piece
	for _, composer := range catalog.Composers {
		if !opts.All && !bool(composer.Popular) {
			continue
		}
		result.Composers++

		name := strings.TrimSpace(composer.CompleteName)
		for _, work := range composer.Works {
			piece := &models.Piece{Title: strings.TrimSpace(work.Title), Composer: name}
			if piece.Validate() != nil {
				result.Skipped++
				continue
			}

			key := pieceKey{piece.Title, piece.Composer}
			if seen[key] {
				result.Duplicates++
				continue
			}
			seen[key] = true
			candidates = append(candidates, piece)
		}
	}

	result.Candidates = len(candidates)
	sendProgress(progress, selectedUpdate(result.Composers, len(candidates)))
	i.logger.Info("catalog selected", "composers", result.Composers, "works", len(candidates), "all", opts.All)

	for n, piece := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sendProgress(progress, insertUpdate(n+1, len(candidates), piece.Title, piece.Composer))

		if _, err := i.pieces.Insert(ctx, piece); err != nil {
			switch shared.KindOf(err) {
			case shared.KindConflict:
				result.Duplicates++
			case shared.KindBackend:
				return result, err
			default:
				i.logger.Warn("piece rejected", "title", piece.Title, "composer", piece.Composer, "error", err)
				result.Failed = append(result.Failed, ImportFailure{Title: piece.Title, Composer: piece.Composer, Err: err})
			}
			continue
		}
		result.Inserted++
	}

	i.logger.Info("catalog imported",
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"skipped", result.Skipped,
		"failed", len(result.Failed))

	return result, nil
}
