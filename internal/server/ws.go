package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/raysh454/sitecheck/internal/events"
	"github.com/raysh454/sitecheck/internal/logging"
)

// handleTestWS godoc
// @Summary Stream status transitions
// @Description Upgrades to a WebSocket. The first message is the current state, then one message per transition. Browsers pass the bearer token as ?token=.
// @Tags tests
// @Param id path string true "Test id"
// @Param token query string false "Bearer token"
// @Success 101
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /ws/tests/{id} [get]
func (s *Server) handleTestWS(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event stream disabled")
		return
	}
	id := chi.URLParam(r, "id")

	// Subscribe before the snapshot so no transition falls in between.
	ch, unsubscribe := s.events.Subscribe(id)
	defer unsubscribe()

	rec, err := s.orchestrator.Get(r.Context(), s.caller(r), id)
	if err != nil {
		s.writeAppError(w, err, nil)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	log := s.logger.With(logging.Field{Key: "test_id", Value: id})
	log.Info("websocket subscribed")

	if err := conn.WriteJSON(events.Event{
		TestID: rec.ID,
		Type:   events.TypeStatus,
		Status: rec.Status,
		Score:  rec.Score,
		Error:  rec.ErrorMessage,
		At:     rec.UpdatedAt,
	}); err != nil {
		return
	}

	// The read loop only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			log.Info("websocket client disconnected")
			return
		case ev, ok := <-ch:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}
