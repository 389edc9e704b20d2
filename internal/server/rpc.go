package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tokyojung/internal/auth"
	"tokyojung/internal/core"
	"tokyojung/internal/models"
)

type procKind int

const (
	query procKind = iota
	mutation
)

const (
	defaultDeadline = 10 * time.Second
	exportDeadline  = 30 * time.Second
)

// procedure is one named RPC entry. Queries ride GET with ?input=, mutations
// ride POST with a JSON body.
type procedure struct {
	access   auth.AccessLevel
	kind     procKind
	deadline time.Duration
	handle   func(ctx context.Context, principal *models.Principal, input json.RawMessage) (any, error)
}

type resultEnvelope struct {
	Result struct {
		Data any `json:"data"`
	} `json:"result"`
}

type errorEnvelope struct {
	Error struct {
		Code          core.Code `json:"code"`
		Message       string    `json:"message"`
		Path          string    `json:"path,omitempty"`
		CorrelationID string    `json:"correlationId"`
	} `json:"error"`
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	correlationID := uuid.NewString()
	w.Header().Set("X-Request-ID", correlationID)

	name := chi.URLParam(r, "procedure")
	proc, ok := s.procedures[name]
	if !ok {
		s.writeError(w, correlationID, name, core.E(core.CodeNotFound, "unknown procedure %q", name))
		return
	}

	// Method and kind must agree; a query POSTed (or vice versa) is as
	// unknown as a misspelled name.
	if (proc.kind == query && r.Method != http.MethodGet) ||
		(proc.kind == mutation && r.Method != http.MethodPost) {
		s.writeError(w, correlationID, name, core.E(core.CodeNotFound, "unknown procedure %q", name))
		return
	}

	principal := s.auth.Principal(bearerToken(r))
	if err := auth.Authorize(principal, proc.access); err != nil {
		s.writeError(w, correlationID, name, err)
		return
	}

	input, err := readInput(r)
	if err != nil {
		s.writeError(w, correlationID, name, err)
		return
	}

	deadline := proc.deadline
	if deadline == 0 {
		deadline = defaultDeadline
	}
	ctx, cancel := context.WithTimeout(r.Context(), deadline)
	defer cancel()

	data, err := proc.handle(ctx, principal, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = core.E(core.CodeTimeout, "deadline exceeded")
		}
		s.writeError(w, correlationID, name, err)
		return
	}

	var envelope resultEnvelope
	envelope.Result.Data = data
	writeJSON(w, http.StatusOK, envelope)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

func readInput(r *http.Request) (json.RawMessage, error) {
	if r.Method == http.MethodGet {
		raw := r.URL.Query().Get("input")
		if raw == "" {
			return json.RawMessage("null"), nil
		}
		if !json.Valid([]byte(raw)) {
			return nil, core.Field("input", "input must be a JSON value")
		}
		return json.RawMessage(raw), nil
	}

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return json.RawMessage("null"), nil
		}
		return nil, core.Field("input", "request body must be a JSON value")
	}
	return body, nil
}

// decode unmarshals procedure input with a BAD_REQUEST on type mismatch.
func decode[T any](input json.RawMessage) (T, error) {
	var v T
	if len(input) == 0 || string(input) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(input, &v); err != nil {
		var target *json.UnmarshalTypeError
		if errors.As(err, &target) && target.Field != "" {
			return v, core.Field(target.Field, "invalid value for %s", target.Field)
		}
		return v, core.Field("input", "malformed input")
	}
	return v, nil
}

func (s *Server) writeError(w http.ResponseWriter, correlationID, procedure string, err error) {
	coded := core.AsError(err)
	if coded == nil {
		coded = core.Wrap(core.CodeInternal, err, "internal error")
	}

	if coded.Code == core.CodeInternal {
		s.logger.Error().Err(err).Str("request_id", correlationID).
			Str("procedure", procedure).Msg("rpc call failed")
	} else {
		s.logger.Debug().Str("request_id", correlationID).Str("procedure", procedure).
			Str("code", string(coded.Code)).Msg(coded.Message)
	}

	var envelope errorEnvelope
	envelope.Error.Code = coded.Code
	envelope.Error.Path = coded.Path
	envelope.Error.CorrelationID = correlationID
	if coded.Code == core.CodeInternal {
		// Never leak internals to clients; the correlation id links the
		// response to the server log.
		envelope.Error.Message = "internal error"
	} else {
		envelope.Error.Message = coded.Message
	}
	writeJSON(w, core.HTTPStatus(coded.Code), envelope)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
