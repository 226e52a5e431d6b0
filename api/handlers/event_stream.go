package handlers

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/filetube-go/internal/domain"
	"github.com/yourusername/filetube-go/pkg/logger"
	"go.uber.org/zap"
)

const (
	initialLogEntries = 50
	runFinishedEvent  = "run_finished"
	pingInterval      = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the API binds to localhost by default
	},
}

// entryFilter selects the log entries a stream forwards
type entryFilter func(logger.LogEntry) bool

func runFilter(runID string) entryFilter {
	return func(entry logger.LogEntry) bool {
		id, _ := entry.Fields["run_id"].(string)
		return id == runID
	}
}

func (f entryFilter) keep(entry logger.LogEntry) bool {
	return f == nil || f(entry)
}

// EventStreamHandler streams log entries over WebSocket, either a whole
// category or the audit events of one batch run
type EventStreamHandler struct {
	reader     *logger.LogReader
	repo       domain.RunRepository
	logger     *zap.Logger
	statusPoll time.Duration
	clients    atomic.Int64
}

// NewEventStreamHandler creates a new stream handler
func NewEventStreamHandler(logsDir string, repo domain.RunRepository, log *zap.Logger) *EventStreamHandler {
	return &EventStreamHandler{
		reader:     logger.NewLogReader(logsDir),
		repo:       repo,
		logger:     log,
		statusPoll: 2 * time.Second,
	}
}

// StreamLogs handles GET /api/v1/logs/stream?category=&run_id=
func (h *EventStreamHandler) StreamLogs(c *gin.Context) {
	category := logger.LogCategory(c.DefaultQuery("category", string(logger.CategoryDownload)))
	if !logger.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
		return
	}

	var filter entryFilter
	if runID := c.Query("run_id"); runID != "" {
		filter = runFilter(runID)
	}

	entries, err := h.reader.ReadTodayLogs(category, 0)
	if err != nil {
		h.logger.Warn("Failed to read log backlog", zap.String("category", string(category)), zap.Error(err))
	}
	backlog := keepEntries(entries, filter)
	if len(backlog) > initialLogEntries {
		backlog = backlog[len(backlog)-initialLogEntries:]
	}

	h.serve(c, category, backlog, filter, nil)
}

// StreamRun handles GET /api/v1/runs/:id/events. It replays the run's audit
// events, follows new ones and closes after the run_finished event.
func (h *EventStreamHandler) StreamRun(c *gin.Context) {
	run, err := h.repo.FindRun(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to load run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.serve(c, logger.CategoryDownload, h.runEvents(run), runFilter(run.ID), run)
}

// runEvents reads the audit events of a run from every daily file since it
// started
func (h *EventStreamHandler) runEvents(run *domain.BatchRun) []logger.LogEntry {
	filter := runFilter(run.ID)
	var events []logger.LogEntry
	today := time.Now()
	for day := run.StartedAt.Local(); ; day = day.AddDate(0, 0, 1) {
		entries, err := h.reader.ReadLogs(logger.CategoryDownload, day, 0)
		if err != nil {
			h.logger.Warn("Failed to read run events", zap.String("run_id", run.ID), zap.Error(err))
		}
		events = append(events, keepEntries(entries, filter)...)
		if sameDay(day, today) || day.After(today) {
			return events
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventStreamHandler) ClientCount() int {
	return int(h.clients.Load())
}

// serve upgrades the connection, sends the backlog and forwards new entries
// until the client leaves. With a run, the stream ends once that run has
// finished.
func (h *EventStreamHandler) serve(c *gin.Context, category logger.LogCategory, backlog []logger.LogEntry, filter entryFilter, run *domain.BatchRun) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.clients.Add(1)
	defer h.clients.Add(-1)

	h.logger.Info("WebSocket client connected",
		zap.String("category", string(category)),
		zap.String("remote_addr", c.Request.RemoteAddr))

	for _, entry := range backlog {
		if err := conn.WriteJSON(entry); err != nil {
			h.logger.Debug("Failed to send backlog", zap.Error(err))
			return
		}
		if run != nil && entry.Message == runFinishedEvent {
			closeStream(conn)
			return
		}
	}

	entryChan := make(chan logger.LogEntry, 100)
	stopChan := make(chan struct{})
	defer close(stopChan)

	go func() {
		if err := h.reader.TailLogs(category, entryChan, stopChan); err != nil {
			h.logger.Error("Log tailing error", zap.Error(err))
		}
	}()

	// the client sends nothing; reading only detects the disconnect
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	var status <-chan time.Time
	if run != nil {
		poll := time.NewTicker(h.statusPoll)
		defer poll.Stop()
		status = poll.C
	}

	for {
		select {
		case entry := <-entryChan:
			if !filter.keep(entry) {
				continue
			}
			if err := conn.WriteJSON(entry); err != nil {
				h.logger.Debug("Failed to send log entry", zap.Error(err))
				return
			}
			if run != nil && entry.Message == runFinishedEvent {
				closeStream(conn)
				return
			}

		case <-status:
			// covers a run_finished written before tailing started
			if final, ok := h.finishedEvent(run); ok {
				conn.WriteJSON(final)
				closeStream(conn)
				return
			}

		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// finishedEvent returns the run_finished entry of a run that is no longer
// running
func (h *EventStreamHandler) finishedEvent(run *domain.BatchRun) (logger.LogEntry, bool) {
	stored, err := h.repo.FindRun(run.ID)
	if err != nil || stored.Status == domain.RunRunning {
		return logger.LogEntry{}, false
	}
	events := h.runEvents(stored)
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Message == runFinishedEvent {
			return events[i], true
		}
	}
	return logger.LogEntry{}, false
}

func keepEntries(entries []logger.LogEntry, filter entryFilter) []logger.LogEntry {
	if filter == nil {
		return entries
	}
	kept := make([]logger.LogEntry, 0, len(entries))
	for _, entry := range entries {
		if filter(entry) {
			kept = append(kept, entry)
		}
	}
	return kept
}

func closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, runFinishedEvent)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
