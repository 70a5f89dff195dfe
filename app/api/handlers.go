package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/discovery"
	"github.com/jobsift/jobsift/app/registry"
	"github.com/jobsift/jobsift/app/tasks"
)

func NewHandler(sources *database.SourceRepository, taskRepo *database.TaskRepository,
	jobs *database.JobRepository, audit *database.AuditRepository,
	runner *tasks.Runner, scheduler *tasks.Scheduler, scorer *registry.Scorer,
	bulk *registry.Service, runAll *registry.RunAllService, disc *discovery.Service) *Handler {
	return &Handler{
		sources:   sources,
		tasks:     taskRepo,
		jobs:      jobs,
		audit:     audit,
		runner:    runner,
		scheduler: scheduler,
		scorer:    scorer,
		bulk:      bulk,
		runAll:    runAll,
		discovery: disc,
	}
}

func apiError(c *gin.Context, status int, kind, details string) {
	c.JSON(status, gin.H{
		"error":   http.StatusText(status),
		"kind":    kind,
		"details": details,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sources.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}
	if jobCount, err := h.jobs.GetJobCount(); err == nil {
		health["jobs"] = jobCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sources.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}
	if byQuality, err := h.sources.CountByQuality(); err == nil {
		stats["sources_by_quality"] = byQuality
	}
	if jobCount, err := h.jobs.GetJobCount(); err == nil {
		stats["jobs"] = jobCount
	}
	if companyCount, err := h.jobs.GetCompanyCount(); err == nil {
		stats["companies"] = companyCount
	}
	if byStatus, err := h.tasks.CountByStatus(); err == nil {
		stats["tasks_by_status"] = byStatus
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListSources(c *gin.Context) {
	filter := database.SourceFilter{
		Tag:        c.Query("tag"),
		ActiveOnly: c.Query("active") == "true",
	}
	if q := c.Query("quality"); q != "" {
		filter.QualityStatus = database.QualityStatus(q)
	}

	sources, err := h.sources.ListSources(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": sources, "count": len(sources)})
}

type createSourceRequest struct {
	Name             string             `json:"name" binding:"required"`
	SourceType       string             `json:"source_type" binding:"required"`
	CompanySlug      string             `json:"company_slug"`
	EndpointOverride string             `json:"endpoint_override"`
	Tags             []string           `json:"tags"`
	Priority         int                `json:"priority"`
	RunConfig        database.RunConfig `json:"run_config"`
}

func (h *Handler) CreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	sourceType := database.SourceType(req.SourceType)
	if sourceType != database.SourceTypeATS && sourceType != database.SourceTypeSocial {
		apiError(c, http.StatusBadRequest, "validation", "source_type must be 'ats' or 'social'")
		return
	}
	if sourceType == database.SourceTypeATS && req.CompanySlug == "" {
		apiError(c, http.StatusBadRequest, "validation", "ats sources require a company_slug")
		return
	}

	id, err := h.sources.CreateSource(&database.Source{
		Name:             req.Name,
		SourceType:       sourceType,
		CompanySlug:      req.CompanySlug,
		EndpointOverride: req.EndpointOverride,
		Active:           true,
		Tags:             req.Tags,
		Priority:         req.Priority,
		RunConfig:        req.RunConfig,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_source", "error", err)
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) EnqueueAll(c *gin.Context) {
	enqueued, err := h.scheduler.EnqueueAllActive()
	if err != nil {
		slog.Error("Enqueue-all failed", "error", err)
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"enqueued": enqueued})
}

func (h *Handler) RunSource(c *gin.Context) {
	id := c.Param("id")

	stats, err := h.runner.RunSource(c.Request.Context(), id)
	if err != nil {
		slog.Error("Ad hoc run failed", "source", id, "error", err)
		apiError(c, http.StatusBadGateway, "upstream", err.Error())
		return
	}

	c.JSON(http.StatusOK, stats)
}

type bulkRequest struct {
	IDs     []string            `json:"ids"`
	Tag     string              `json:"tag"`
	Quality string              `json:"quality"`
	Update  registry.BulkUpdate `json:"update"`
	AddTag  string              `json:"add_tag"`
}

func (h *Handler) BulkUpdateSources(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	filter := database.SourceFilter{
		IDs:           req.IDs,
		Tag:           req.Tag,
		QualityStatus: database.QualityStatus(req.Quality),
	}

	affected := 0
	if req.Update.Active != nil {
		n, err := h.bulk.BulkUpdateSources(filter, req.Update)
		if err != nil {
			apiError(c, http.StatusInternalServerError, "storage", err.Error())
			return
		}
		affected += n
	}
	if req.AddTag != "" {
		n, err := h.bulk.BulkAddTag(filter, req.AddTag)
		if err != nil {
			apiError(c, http.StatusInternalServerError, "storage", err.Error())
			return
		}
		affected += n
	}

	c.JSON(http.StatusOK, gin.H{"affected": affected})
}

type tagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

func (h *Handler) AddTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	if err := h.bulk.AddTag(c.Param("id"), req.Tag); err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) RemoveTag(c *gin.Context) {
	if err := h.bulk.RemoveTag(c.Param("id"), c.Param("tag")); err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

type runAllRequest struct {
	Tag     string `json:"tag"`
	Quality string `json:"quality"`
}

func (h *Handler) StartRunAll(c *gin.Context) {
	var req runAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, "validation", err.Error())
			return
		}
	}

	runID, err := h.runAll.Start(database.SourceFilter{
		Tag:           req.Tag,
		QualityStatus: database.QualityStatus(req.Quality),
	})
	if errors.Is(err, database.ErrRunActive) {
		apiError(c, http.StatusConflict, "run_active", err.Error())
		return
	}
	if errors.Is(err, registry.ErrNoSourcesMatch) {
		apiError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (h *Handler) GetRunAllProgress(c *gin.Context) {
	run, err := h.runAll.Progress()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}
	if run == nil {
		apiError(c, http.StatusNotFound, "not_found", "no run-all has been started")
		return
	}

	c.JSON(http.StatusOK, runResponse(run))
}

func (h *Handler) CancelRunAll(c *gin.Context) {
	cancelled, err := h.runAll.Cancel()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (h *Handler) RecalculateScores(c *gin.Context) {
	updated, err := h.scorer.RecalculateAllScores(c.Request.Context())
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *Handler) ResetStuckTasks(c *gin.Context) {
	reset, err := h.scheduler.ResetStuck()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": reset})
}

type discoveryRequest struct {
	Query    string `json:"query" binding:"required"`
	MaxPages int    `json:"max_pages"`
}

func (h *Handler) StartDiscovery(c *gin.Context) {
	var req discoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apiError(c, http.StatusBadRequest, "validation", err.Error())
		return
	}

	runID, err := h.discovery.Start(req.Query, req.MaxPages)
	if errors.Is(err, database.ErrRunActive) {
		apiError(c, http.StatusConflict, "run_active", err.Error())
		return
	}
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"run_id": runID})
}

func (h *Handler) GetDiscoveryProgress(c *gin.Context) {
	run, err := h.discovery.Progress()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}
	if run == nil {
		apiError(c, http.StatusNotFound, "not_found", "no discovery has been started")
		return
	}

	c.JSON(http.StatusOK, runResponse(run))
}

func (h *Handler) CancelDiscovery(c *gin.Context) {
	cancelled, err := h.discovery.Cancel()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

type candidateIDsRequest struct {
	IDs []string `json:"ids"`
}

func (h *Handler) ValidateCandidates(c *gin.Context) {
	var req candidateIDsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, "validation", err.Error())
			return
		}
	}

	results, err := h.discovery.Validate(c.Request.Context(), req.IDs)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) AddDiscovered(c *gin.Context) {
	var req candidateIDsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apiError(c, http.StatusBadRequest, "validation", err.Error())
			return
		}
	}

	added, skipped, err := h.discovery.AddDiscovered(req.IDs)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": added, "skipped": skipped})
}

func (h *Handler) ListImports(c *gin.Context) {
	since := time.Now().Add(-14 * 24 * time.Hour)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apiError(c, http.StatusBadRequest, "validation", "since must be RFC3339")
			return
		}
		since = parsed
	}

	logs, err := h.audit.ListImportLogs(c.Query("source_id"), since)
	if err != nil {
		apiError(c, http.StatusInternalServerError, "storage", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"imports": logs, "count": len(logs)})
}

func runResponse(run *database.PipelineRun) gin.H {
	resp := gin.H{
		"run_id":           run.ID,
		"kind":             run.Kind,
		"status":           run.Status,
		"query":            run.Query,
		"current_page":     run.CurrentPage,
		"found":            run.Found,
		"processed":        run.Processed,
		"cancel_requested": run.CancelRequested,
		"started_at":       run.StartedAt.Format(time.RFC3339),
	}
	if run.Error != "" {
		resp["error"] = run.Error
	}
	if run.FinishedAt != nil {
		resp["finished_at"] = run.FinishedAt.Format(time.RFC3339)
	}
	return resp
}
