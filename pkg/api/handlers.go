package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odvcencio/streamdown/pkg/segment"
)

var errSessionNotFound = errors.New("session not found")

type sessionCreatedResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

type pushDeltaRequest struct {
	Delta string `json:"delta"`
}

type stateResponse struct {
	ID          string       `json:"id"`
	RawLength   int          `json:"raw_length"`
	Preview     string       `json:"preview"`
	Segments    []segmentDTO `json:"segments"`
	MainContent string       `json:"main_content"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type segmentDTO struct {
	Kind      string        `json:"kind"`
	Start     int           `json:"start"`
	End       int           `json:"end"`
	Text      string        `json:"text,omitempty"`
	Reasoning *reasoningDTO `json:"reasoning,omitempty"`
	ToolCall  *toolCallDTO  `json:"tool_call,omitempty"`
}

type reasoningDTO struct {
	Content         string `json:"content"`
	Summary         string `json:"summary,omitempty"`
	DurationSeconds uint   `json:"duration_seconds,omitempty"`
	Done            bool   `json:"done"`
}

type toolCallDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Done      bool   `json:"done"`
	Arguments any    `json:"arguments,omitempty"`
	Result    any    `json:"result,omitempty"`
	Files     []any  `json:"files,omitempty"`
}

func (s *Server) handlePushDelta(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess := s.getSession(id)
	if sess == nil {
		respondError(w, http.StatusNotFound, errSessionNotFound)
		return
	}

	var req pushDeltaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logError("bad_request", err.Error())
		respondError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Delta == "" {
		respondError(w, http.StatusBadRequest, errors.New("delta is required"))
		return
	}

	state := s.ingestDelta(sess, req.Delta)

	s.logInfo("delta_pushed", map[string]any{
		"session_id": id,
		"delta_len":  len(req.Delta),
		"raw_len":    state.RawLength,
	})
	respondJSON(w, state)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	sess := s.getSession(id)
	if sess == nil {
		respondError(w, http.StatusNotFound, errSessionNotFound)
		return
	}

	respondJSON(w, s.sessionState(sess))
}

// ingestDelta appends one delta and returns the recomputed state. The
// lock is released by defer so a segmentation panic cannot wedge the
// session.
func (s *Server) ingestDelta(sess *session, delta string) stateResponse {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.balancer.Ingest(delta)
	sess.updatedAt = time.Now()
	return s.buildState(sess)
}

// sessionState returns the current state under the session lock.
func (s *Server) sessionState(sess *session) stateResponse {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.buildState(sess)
}

// buildState recomputes the segmented view from the full buffer. The
// session lock must be held.
func (s *Server) buildState(sess *session) stateResponse {
	raw := sess.balancer.Finalize()

	segments := segment.Reasoning(raw, s.opts...)
	dtos := make([]segmentDTO, 0, len(segments))
	for _, seg := range segments {
		dtos = append(dtos, toDTO(seg)...)
	}

	state := stateResponse{
		ID:        sess.id,
		RawLength: len(raw),
		Preview:   sess.balancer.Preview(),
		Segments:  dtos,
		UpdatedAt: sess.updatedAt,
	}
	// Nil on an empty or whitespace-only buffer: nothing to parse yet.
	if result := segment.ParseToolCalls(raw); result != nil {
		state.MainContent = result.MainContent
	}
	return state
}

// toDTO converts one reasoning-level segment, re-segmenting text spans
// for tool calls so the response carries both views.
func toDTO(seg segment.Segment) []segmentDTO {
	switch seg.Kind {
	case segment.KindReasoning:
		return []segmentDTO{{
			Kind:  seg.Kind.String(),
			Start: seg.Start,
			End:   seg.End,
			Reasoning: &reasoningDTO{
				Content:         seg.Reasoning.Cleaned(),
				Summary:         seg.Reasoning.Summary,
				DurationSeconds: seg.Reasoning.DurationSeconds,
				Done:            seg.Reasoning.Done,
			},
		}}
	case segment.KindText:
		return textToDTOs(seg)
	default:
		return nil
	}
}

// textToDTOs runs the tool-call segmenter over one text span. Offsets
// are shifted back into full-buffer coordinates.
func textToDTOs(seg segment.Segment) []segmentDTO {
	inner := segment.ToolCalls(seg.Text)
	if len(inner) == 0 {
		return nil
	}

	out := make([]segmentDTO, 0, len(inner))
	for _, is := range inner {
		dto := segmentDTO{
			Kind:  is.Kind.String(),
			Start: seg.Start + is.Start,
			End:   seg.Start + is.End,
		}
		if is.Kind == segment.KindToolCall {
			dto.ToolCall = &toolCallDTO{
				ID:        is.ToolCall.ID,
				Name:      is.ToolCall.Name,
				Done:      is.ToolCall.Done,
				Arguments: is.ToolCall.Arguments,
				Result:    is.ToolCall.Result,
				Files:     is.ToolCall.Files,
			}
		} else {
			dto.Text = is.Text
		}
		out = append(out, dto)
	}
	return out
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

// respondError sends a structured JSON error response.
func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	response := struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{
		Error:  err.Error(),
		Status: status,
	}
	_ = json.NewEncoder(w).Encode(response)
}
