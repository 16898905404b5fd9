package controllers

import (
	"fmt"
	"net/http"

	"github.com/rzbill/flightreview/internal/dataset"
	"github.com/rzbill/flightreview/internal/query"
	"github.com/rzbill/flightreview/internal/runtime"
	"github.com/rzbill/flightreview/internal/timeline"
	"github.com/rzbill/flightreview/pkg/log"
)

// LogsController serves decoded logs by id. Every request decodes the log
// file on its own; nothing is cached between requests.
type LogsController struct {
	rt     *runtime.Runtime
	logger log.Logger
}

// NewLogsController creates a controller reading logs through rt.
func NewLogsController(rt *runtime.Runtime, logger log.Logger) *LogsController {
	return &LogsController{rt: rt, logger: logger.WithComponent("http.logs")}
}

// RegisterRoutes registers log routes with the given mux.
//
// This method sets up HTTP endpoints for:
// - Bundle documents (/v1/logs/{id})
// - Stored metadata (/v1/logs/{id}/metadata)
// - Topic rows (/v1/logs/{id}/topics/{name}) and their SSE replay (.../stream)
// - Timelines (/v1/logs/{id}/timelines/{name})
func (c *LogsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/logs/{id}", c.handleDocument)
	mux.HandleFunc("GET /v1/logs/{id}/metadata", c.handleMetadata)
	mux.HandleFunc("GET /v1/logs/{id}/topics/{name}", c.handleTopic)
	mux.HandleFunc("GET /v1/logs/{id}/topics/{name}/stream", c.handleTopicStream)
	mux.HandleFunc("GET /v1/logs/{id}/timelines/{name}", c.handleTimeline)
}

// handleDocument returns the bundle of a log without row data.
func (c *LogsController) handleDocument(w http.ResponseWriter, r *http.Request) {
	b, err := c.rt.Review(r.Context(), r.PathValue("id"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeEncoded(w, r, b.Document())
}

// handleMetadata returns the stored metadata record, which is empty when
// the log is unknown to the store.
func (c *LogsController) handleMetadata(w http.ResponseWriter, r *http.Request) {
	logID := r.PathValue("id")
	if err := c.rt.ValidateID(logID); err != nil {
		c.fail(w, r, err)
		return
	}
	writeEncoded(w, r, c.rt.Metadata(r.Context(), logID))
}

// handleTopic returns the rows of one topic instance. The optional where
// parameter is a row filter expression; limit caps the number of rows.
func (c *LogsController) handleTopic(w http.ResponseWriter, r *http.Request) {
	l, t, filter, ok := c.topicRequest(w, r)
	if !ok {
		return
	}
	rows := filter.Rows(t, l.StartTimestamp, parseLimit(r.URL.Query().Get("limit")))
	if rows == nil {
		rows = []int{}
	}
	writeEncoded(w, r, runtime.Table(t, rows))
}

// handleTopicStream replays the matching rows of one topic as server-sent
// events, one event per row.
func (c *LogsController) handleTopicStream(w http.ResponseWriter, r *http.Request) {
	l, t, filter, ok := c.topicRequest(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	sink := sseSink{w: w, r: r}
	limit := parseLimit(r.URL.Query().Get("limit"))
	columns := t.Table.ColumnNames()
	if err := sink.Send("columns", columns); err != nil {
		return
	}
	sent := 0
	for i := 0; i < t.Len(); i++ {
		if err := sink.Context().Err(); err != nil {
			return
		}
		if !filter.Match(t, i, l.StartTimestamp) {
			continue
		}
		view := runtime.Table(t, []int{i})
		if err := sink.Send("row", rowEvent{Index: i, Timestamp: view.Timestamps[0], Flags: view.Flags[0], Values: view.Rows[0]}); err != nil {
			c.logger.Debug("stream client gone", log.Err(err))
			return
		}
		sent++
		if limit > 0 && sent >= limit {
			break
		}
	}
	_ = sink.Send("end", map[string]int{"rows": sent})
	_ = sink.Flush()
}

// handleTimeline returns a configured timeline, or one built on the fly
// from the topic and field query parameters.
func (c *LogsController) handleTimeline(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	b, err := c.rt.Review(r.Context(), r.PathValue("id"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	tl, ok := b.Timelines[name]
	if !ok {
		q := r.URL.Query()
		if q.Get("topic") == "" || q.Get("field") == "" {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown timeline %q", name))
			return
		}
		inst, err := parseInstance(q.Get("instance"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tl = timeline.FromLog(b.Log, q.Get("topic"), inst, q.Get("field"), timeline.ClosedMode)
	}
	view := runtime.ViewTimeline(name, tl)
	if r.URL.Query().Has("intervals") {
		writeEncoded(w, r, map[string]any{"name": name, "intervals": runtime.ViewIntervals(name, tl)})
		return
	}
	writeEncoded(w, r, view)
}

// topicRequest loads the log and resolves the topic and filter named by r.
// It writes the error response itself and reports false on failure.
func (c *LogsController) topicRequest(w http.ResponseWriter, r *http.Request) (*dataset.Log, *dataset.Topic, *query.Filter, bool) {
	q := r.URL.Query()
	inst, err := parseInstance(q.Get("instance"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, nil, nil, false
	}
	filter, err := query.Compile(q.Get("where"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "where: "+err.Error())
		return nil, nil, nil, false
	}
	l, err := c.rt.LoadLog(r.Context(), r.PathValue("id"))
	if err != nil {
		c.fail(w, r, err)
		return nil, nil, nil, false
	}
	name := r.PathValue("name")
	t, ok := l.Topic(name, inst)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("topic %s[%d] not in log", name, inst))
		return nil, nil, nil, false
	}
	return l, t, filter, true
}

func (c *LogsController) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error("request failed", log.Str("path", r.URL.Path), log.Err(err))
	} else {
		c.logger.Debug("request rejected", log.Str("path", r.URL.Path), log.Int("status", status), log.Err(err))
	}
	writeError(w, status, err.Error())
}

// rowEvent is the payload of one SSE row event.
type rowEvent struct {
	Index     int    `json:"index"`
	Timestamp uint64 `json:"timestamp"`
	Flags     uint8  `json:"flags"`
	Values    []any  `json:"values"`
}
