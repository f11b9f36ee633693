// Package server exposes the editing API over HTTP: delta-sync pulls,
// presence heartbeats, row saves, and batch document previews.
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/batch"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/changelog"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/deltasync"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/presence"
	"github.com/mohammad2xs/arabic-translation-editor-sub004/internal/segment"
)

// DefaultSection is used when a client omits the section parameter.
const DefaultSection = "S001"

// ErrorResponse is the JSON body returned for every non-2xx status.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Server holds the shared state behind the HTTP handlers.
type Server struct {
	store    *segment.Store
	log      *changelog.Log
	registry *presence.Registry
	sync     *deltasync.Service
	batchDir string
}

// New wires the handlers over the given stores.
func New(store *segment.Store, log *changelog.Log, registry *presence.Registry, batchDir string) *Server {
	return &Server{
		store:    store,
		log:      log,
		registry: registry,
		sync:     deltasync.New(log, registry),
		batchDir: batchDir,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	api := r.Group("/api")
	{
		api.GET("/sync/pull", s.handlePull)
		api.POST("/sync/heartbeat", s.handleHeartbeat)
		api.POST("/rows/save", s.handleRowSave)
		api.GET("/batches", s.handleBatchList)
		api.GET("/batches/:name/preview", s.handleBatchPreview)
	}
	return r
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	slog.Info("starting editor API", "addr", addr)
	return s.Router().Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "segments": s.store.Len()})
}

// handlePull handles GET /api/sync/pull?section=&since=.
//
// since is the last revision the client has applied; 0 (or absent)
// means a full catch-up. A section nobody has edited yet answers with
// revision 0 and empty rows rather than an error.
func (s *Server) handlePull(c *gin.Context) {
	section := c.DefaultQuery("section", DefaultSection)
	sinceRaw := c.DefaultQuery("since", "0")
	since, err := strconv.ParseInt(sinceRaw, 10, 64)
	if err != nil || since < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid since value %q", sinceRaw),
			Code:  "INVALID_SINCE",
		})
		return
	}

	delta, err := s.sync.Pull(section, since)
	if err != nil {
		slog.Error("delta pull failed", "section", section, "since", since, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to read change log",
			Code:  "PULL_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, delta)
}

// HeartbeatRequest is the body of POST /api/sync/heartbeat.
type HeartbeatRequest struct {
	UserLabel string `json:"userLabel" binding:"required"`
	Section   string `json:"section"`
	RowID     string `json:"rowId"`
}

func (s *Server) handleHeartbeat(c *gin.Context) {
	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if req.Section == "" {
		req.Section = DefaultSection
	}
	if err := s.registry.Heartbeat(req.UserLabel, req.Section, req.RowID); err != nil {
		slog.Error("heartbeat failed", "user", req.UserLabel, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to record presence",
			Code:  "HEARTBEAT_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RowSaveRequest is the body of POST /api/rows/save. En and ArEnhanced
// are pointers so a client can clear a field by sending an empty string
// while leaving omitted fields untouched.
type RowSaveRequest struct {
	Section    string  `json:"section"`
	RowID      string  `json:"rowId" binding:"required"`
	En         *string `json:"en"`
	ArEnhanced *string `json:"arEnhanced"`
	UserLabel  string  `json:"userLabel"`
}

// handleRowSave applies a human edit to every segment of the row and
// appends one change record, answering with the new revision so the
// client can fold its own write into the sync cursor.
func (s *Server) handleRowSave(c *gin.Context) {
	var req RowSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	if req.Section == "" {
		req.Section = DefaultSection
	}
	if req.En == nil && req.ArEnhanced == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "at least one of en or arEnhanced must be set",
			Code:  "EMPTY_CHANGES",
		})
		return
	}

	origin := req.UserLabel
	if origin == "" {
		origin = "editor"
	}
	updated, err := s.store.ApplyRowChanges(req.Section, req.RowID, segment.RowChanges{
		En:         req.En,
		ArEnhanced: req.ArEnhanced,
	}, origin)
	if err != nil {
		slog.Error("row save failed", "row", req.RowID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to persist row",
			Code:  "SAVE_FAILED",
		})
		return
	}
	if updated == 0 {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: fmt.Sprintf("row %q not found in section %q", req.RowID, req.Section),
			Code:  "ROW_NOT_FOUND",
		})
		return
	}

	changes := make(map[string]string, 2)
	if req.En != nil {
		changes["en"] = *req.En
	}
	if req.ArEnhanced != nil {
		changes["arEnhanced"] = *req.ArEnhanced
	}
	rev, err := s.log.Append(req.Section, req.RowID, changes, origin)
	if err != nil {
		slog.Error("change record append failed", "row", req.RowID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "row saved but change record failed",
			Code:  "LOG_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rev": rev, "updatedSegments": updated})
}

func (s *Server) handleBatchList(c *gin.Context) {
	paths, err := batch.List(s.batchDir)
	if err != nil {
		slog.Error("batch listing failed", "dir", s.batchDir, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to list batch documents",
			Code:  "LIST_FAILED",
		})
		return
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	c.JSON(http.StatusOK, gin.H{"batches": names})
}

// handleBatchPreview renders one batch document as HTML for review in
// the browser. The name is restricted to a bare file name so a client
// cannot walk out of the batch directory.
func (s *Server) handleBatchPreview(c *gin.Context) {
	name := c.Param("name")
	if name != filepath.Base(name) || strings.Contains(name, "..") || !strings.HasSuffix(name, ".md") {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid batch name %q", name),
			Code:  "INVALID_NAME",
		})
		return
	}
	doc, err := os.ReadFile(filepath.Join(s.batchDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error: fmt.Sprintf("batch %q not found", name),
				Code:  "BATCH_NOT_FOUND",
			})
			return
		}
		slog.Error("batch read failed", "name", name, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "failed to read batch document",
			Code:  "READ_FAILED",
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(batch.RenderHTML(doc)))
}
