package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nverhoeven/taskpilot/graph/drive"
	apperrors "github.com/nverhoeven/taskpilot/internal/errors"
)

// withWorkbook locates the configured workbook and runs fn against it. A
// failure on a cached location invalidates the cache and retries once with a
// fresh discovery, covering files that were moved or re-shared.
func (s *Server) withWorkbook(ctx context.Context, accessToken, userID string, fn func(drive.Location) error) error {
	filename := s.config.GetWorkbookFileName()

	loc, err := s.drive.Find(ctx, accessToken, userID, filename)
	if err != nil {
		return err
	}

	if err := fn(loc); err != nil {
		if apperrors.Is(err, apperrors.ErrReauthRequired) {
			return err
		}
		log.Warn().Err(err).Str("file_id", loc.FileID).Msg("cached workbook location failed, rediscovering")

		s.drive.Forget(userID, filename)
		loc, err = s.drive.Find(ctx, accessToken, userID, filename)
		if err != nil {
			return err
		}
		return fn(loc)
	}
	return nil
}

// SheetDataHandler reads the configured Excel table: header row plus data rows.
func (s *Server) SheetDataHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := currentPrincipal(r)
		if !ok {
			writeReauthRequired(w, "not authenticated")
			return
		}

		accessToken, err := s.accessTokenFor(r.Context(), p)
		if err != nil {
			writeUpstreamError(w, err, "unable to authorise with Microsoft", "raw")
			return
		}

		var table *drive.Table
		err = s.withWorkbook(r.Context(), accessToken, p.ID, func(loc drive.Location) error {
			var readErr error
			table, readErr = s.drive.TableData(r.Context(), accessToken, loc, s.config.GetWorkbookTableName())
			return readErr
		})
		if err != nil {
			if apperrors.Is(err, apperrors.ErrFileNotFound) {
				writeError(w, http.StatusNotFound, "workbook not found in drive", nil)
				return
			}
			writeUpstreamError(w, err, "unable to read sheet data", "raw")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"headers": table.Headers,
			"rows":    table.Rows,
		})
	}
}

// SheetColorsHandler reads the worksheet's used range with per-cell fill
// colors.
func (s *Server) SheetColorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := currentPrincipal(r)
		if !ok {
			writeReauthRequired(w, "not authenticated")
			return
		}

		accessToken, err := s.accessTokenFor(r.Context(), p)
		if err != nil {
			writeUpstreamError(w, err, "unable to authorise with Microsoft", "raw")
			return
		}

		var grid *drive.ColorGrid
		err = s.withWorkbook(r.Context(), accessToken, p.ID, func(loc drive.Location) error {
			var readErr error
			grid, readErr = s.drive.UsedRangeWithColors(r.Context(), accessToken, loc, s.config.GetWorkbookSheetName())
			return readErr
		})
		if err != nil {
			if apperrors.Is(err, apperrors.ErrFileNotFound) {
				writeError(w, http.StatusNotFound, "workbook not found in drive", nil)
				return
			}
			writeUpstreamError(w, err, "unable to read sheet colors", "raw")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"address": grid.Address,
			"values":  grid.Values,
			"colors":  grid.Colors,
		})
	}
}
