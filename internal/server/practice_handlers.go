package server

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/desertthunder/practicelog/internal/models"
	"github.com/desertthunder/practicelog/internal/services"
	"github.com/desertthunder/practicelog/internal/shared"
)

type createPieceRequest struct {
	Title    string `json:"title"`
	Composer string `json:"composer"`
}

type createPracticeSessionRequest struct {
	StartDatetime string  `json:"start_datetime"`
	DurationMins  *int    `json:"duration_mins"`
	Instrument    string  `json:"instrument"`
	PieceIDs      []int64 `json:"piece_ids"`
}

type createPiecePracticedRequest struct {
	PracticeSessionID int64 `json:"practice_session_id"`
	PieceID           int64 `json:"piece_id"`
}

func (s *Server) handleGetPieces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := models.PieceFilter{
		Title:    q.Get("title"),
		Composer: q.Get("composer"),
	}

	var err error
	if filter.PieceID, err = queryInt64(q, "piece_id"); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	pieces, err := s.practice.ListPieces(r.Context(), filter)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"pieces": pieces})
}

func (s *Server) handleCreatePiece(w http.ResponseWriter, r *http.Request, _ int64) {
	var req createPieceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	piece, err := s.practice.CreatePiece(r.Context(), req.Title, req.Composer)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"piece": piece})
}

func (s *Server) handleDeletePiece(w http.ResponseWriter, r *http.Request, _ int64) {
	pieceID, err := pathInt64(r, "piece_id")
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	n, err := s.practice.DeletePiece(r.Context(), pieceID)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"num_deleted": n})
}

func (s *Server) handleGetPracticeSessions(w http.ResponseWriter, r *http.Request, userID int64) {
	filter, err := parseSessionFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	sessions, err := s.practice.ListSessions(r.Context(), userID, filter)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"practice_sessions": sessions})
}

func (s *Server) handleCreatePracticeSession(w http.ResponseWriter, r *http.Request, userID int64) {
	var req createPracticeSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	start, err := shared.ParseTimestamp(req.StartDatetime)
	if err != nil {
		respondError(w, r, s.logger, shared.ClientError("Invalid practice session start time"))
		return
	}
	if req.DurationMins == nil {
		respondError(w, r, s.logger, shared.ClientError("Invalid practice session duration"))
		return
	}

	fields := services.SessionFields{
		StartDatetime: start,
		DurationMins:  *req.DurationMins,
		Instrument:    req.Instrument,
	}

	result, err := s.practice.CreateSessionWithLinks(r.Context(), userID, fields, req.PieceIDs)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	respond(w, map[string]any{
		"practice_session": result.Session,
		"pieces_practiced": result.Links,
		"rejected_pieces":  result.Rejected,
	})
}

func (s *Server) handleDeletePracticeSession(w http.ResponseWriter, r *http.Request, userID int64) {
	sessionID, err := pathInt64(r, "practice_session_id")
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	result, err := s.practice.DeleteSessionCascade(r.Context(), userID, sessionID)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	respond(w, map[string]any{
		"deleted_session_count": result.DeletedSessionCount,
		"deleted_link_count":    result.DeletedLinkCount,
	})
}

func (s *Server) handleCreatePiecePracticed(w http.ResponseWriter, r *http.Request, userID int64) {
	var req createPiecePracticedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	link, err := s.practice.CreateLink(r.Context(), userID, req.PracticeSessionID, req.PieceID)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"piece_practiced": link})
}

func (s *Server) handleDeletePiecePracticed(w http.ResponseWriter, r *http.Request, userID int64) {
	sessionID, err := pathInt64(r, "practice_session_id")
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	pieceID, err := pathInt64(r, "piece_id")
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}

	n, err := s.practice.DeleteLink(r.Context(), userID, sessionID, pieceID)
	if err != nil {
		respondError(w, r, s.logger, err)
		return
	}
	respond(w, map[string]any{"num_deleted": n})
}

// parseSessionFilter reads the optional practice session filters from the query string.
func parseSessionFilter(q url.Values) (models.PracticeSessionFilter, error) {
	filter := models.PracticeSessionFilter{Instrument: q.Get("instrument")}

	var err error
	if filter.PracticeSessionID, err = queryInt64(q, "practice_session_id"); err != nil {
		return filter, err
	}
	if filter.MinStart, err = queryTime(q, "min_datetime"); err != nil {
		return filter, err
	}
	if filter.MaxStart, err = queryTime(q, "max_datetime"); err != nil {
		return filter, err
	}
	if filter.MinDuration, err = queryInt(q, "min_duration_mins"); err != nil {
		return filter, err
	}
	if filter.MaxDuration, err = queryInt(q, "max_duration_mins"); err != nil {
		return filter, err
	}
	return filter, nil
}

func invalidValue(key string) error {
	return shared.ClientError("Invalid value for " + key)
}

func queryInt64(q url.Values, key string) (*int64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, invalidValue(key)
	}
	return &v, nil
}

func queryInt(q url.Values, key string) (*int, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalidValue(key)
	}
	return &v, nil
}

func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := shared.ParseTimestamp(raw)
	if err != nil {
		return nil, invalidValue(key)
	}
	return &v, nil
}

func pathInt64(r *http.Request, key string) (int64, error) {
	v, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil {
		return 0, invalidValue(key)
	}
	return v, nil
}
