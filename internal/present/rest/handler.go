package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/basediff/basediff/internal/domain"
	"github.com/basediff/basediff/internal/present/rest/presenter"
	"github.com/basediff/basediff/internal/service"
	"github.com/basediff/basediff/internal/usecase"
)

type Handler struct {
	scan     *usecase.ScanUsecase
	query    *usecase.QueryUsecase
	label    *usecase.LabelUsecase
	progress *service.ProgressService
	stats    *service.StatsCache
}

func NewHandler(
	scan *usecase.ScanUsecase,
	query *usecase.QueryUsecase,
	label *usecase.LabelUsecase,
	progress *service.ProgressService,
	stats *service.StatsCache,
) *Handler {
	return &Handler{
		scan:     scan,
		query:    query,
		label:    label,
		progress: progress,
		stats:    stats,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/health", h.handleHealth)
	e.POST("/api/scan_repos", h.handleScanRepos)
	e.GET("/api/commits", h.handleCommits)
	e.GET("/api/stats", h.handleStats)
	e.GET("/api/projects", h.handleProjects)
	e.GET("/api/authors", h.handleAuthors)
	e.GET("/api/progress", h.handleProgress)
	e.GET("/progress", h.handleProgressStream)
	e.GET("/api/labels", h.handleLabelList)
	e.POST("/api/labels/add", h.handleLabelAdd)
	e.POST("/api/labels/remove", h.handleLabelRemove)
	e.POST("/api/set_labels", h.handleSetLabels)
	e.POST("/api/reset", h.handleReset)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{
		"service": "basediff",
		"status":  "running",
	})
}

func (h *Handler) handleScanRepos(c echo.Context) error {
	ctx := c.Request().Context()

	var input usecase.ScanInput
	if err := c.Bind(&input); err != nil {
		return presenter.BadRequest(c, err)
	}
	if input.UpstreamPath == "" || input.VendorPath == "" {
		return presenter.BadRequestMessage(c, "upstreamPath and vendorPath are required")
	}

	result, err := h.scan.Scan(ctx, input)
	if err != nil {
		return presenter.FromError(c, err)
	}

	h.stats.Invalidate()
	h.query.InvalidateLists()

	return presenter.OK(c, echo.Map{
		"success": true,
		"stats":   result,
	})
}

func (h *Handler) handleCommits(c echo.Context) error {
	ctx := c.Request().Context()

	var filter domain.CommitFilter
	if s := c.QueryParam("classification"); s != "" {
		classification := domain.Classification(s)
		if !classification.Valid() {
			return presenter.BadRequestMessage(c, "invalid classification parameter")
		}
		filter.Classification = &classification
	}
	filter.Project = c.QueryParam("project")
	filter.Author = c.QueryParam("author")
	filter.Search = c.QueryParam("search")
	filter.Since = c.QueryParam("since")
	filter.Until = c.QueryParam("until")

	opts := usecase.QueryOptions{Filter: filter}

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		opts.Limit = limit
	}
	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return presenter.BadRequestMessage(c, "invalid offset parameter")
		}
		opts.Offset = offset
	}
	opts.Unbounded = c.QueryParam("unbounded") == "true"

	result, err := h.query.Commits(ctx, opts)
	if err != nil {
		return presenter.FromError(c, err)
	}

	return presenter.OK(c, echo.Map{
		"success": true,
		"total":   result.Total,
		"commits": result.Commits,
	})
}

func (h *Handler) handleStats(c echo.Context) error {
	ctx := c.Request().Context()

	if counts, ok := h.stats.Get(); ok {
		return presenter.OK(c, echo.Map{"success": true, "stats": counts})
	}

	counts, err := h.query.Stats(ctx)
	if err != nil {
		return presenter.FromError(c, err)
	}
	h.stats.Set(counts)

	return presenter.OK(c, echo.Map{"success": true, "stats": counts})
}

func (h *Handler) handleProjects(c echo.Context) error {
	projects, err := h.query.Projects(c.Request().Context())
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true, "projects": projects})
}

func (h *Handler) handleAuthors(c echo.Context) error {
	authors, err := h.query.Authors(c.Request().Context())
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true, "authors": authors})
}

func (h *Handler) handleProgress(c echo.Context) error {
	progress, err := h.progress.Current(c.Request().Context())
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, progress)
}

func (h *Handler) handleLabelList(c echo.Context) error {
	labels, err := h.label.List(c.Request().Context())
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true, "labels": labels})
}

type addLabelRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleLabelAdd(c echo.Context) error {
	var req addLabelRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	id, err := h.label.Add(c.Request().Context(), req.Name)
	if err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true, "labelId": id})
}

type removeLabelRequest struct {
	ID int64 `json:"id"`
}

func (h *Handler) handleLabelRemove(c echo.Context) error {
	var req removeLabelRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.label.Remove(c.Request().Context(), req.ID); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

type setLabelsRequest struct {
	Hash     string  `json:"hash"`
	LabelIDs []int64 `json:"labelIds"`
}

func (h *Handler) handleSetLabels(c echo.Context) error {
	var req setLabelsRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.label.SetForCommit(c.Request().Context(), req.Hash, req.LabelIDs); err != nil {
		return presenter.FromError(c, err)
	}
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) handleReset(c echo.Context) error {
	if err := h.scanReset(c.Request().Context()); err != nil {
		return presenter.FromError(c, err)
	}
	h.stats.Invalidate()
	h.query.InvalidateLists()
	return presenter.OK(c, echo.Map{"success": true})
}

func (h *Handler) scanReset(ctx context.Context) error {
	return h.scan.Reset(ctx)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleProgressStream(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("failed to upgrade websocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.Progress)
	go func() {
		h.progress.Stream(ctx, output)
		close(output)
	}()

	go func() {
		// Drain client messages so close frames are noticed; the stream
		// is one-directional otherwise.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-output:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(p); err != nil {
				slog.DebugContext(ctx, "websocket write failed",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
