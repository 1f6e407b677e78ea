package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/scheduler"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Check probes one dependency for readiness
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// JobStates reports the background jobs
type JobStates interface {
	States() []scheduler.JobState
}

// SystemHandler serves liveness, readiness and job status
type SystemHandler struct {
	BaseHandler
	checks  []Check
	jobs    JobStates
	timeout time.Duration
}

// NewSystemHandler creates a new system handler. jobs may be nil.
func NewSystemHandler(jobs JobStates, checks ...Check) *SystemHandler {
	return &SystemHandler{checks: checks, jobs: jobs, timeout: 2 * time.Second}
}

// RegisterProbeRoutes mounts the unauthenticated probes
func (h *SystemHandler) RegisterProbeRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// RegisterRoutes mounts the routes of an authenticated platform group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/system/jobs", h.Jobs)
}

// Health reports that the process is serving
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{"status": "ok"})
}

// Ready probes every dependency and answers 503 when one is down
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Probe(ctx); err != nil {
			results[chk.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[chk.Name] = "ok"
	}
	resp := dto.NewSuccessResponse(gin.H{"checks": results})
	resp.Success = status == http.StatusOK
	c.JSON(status, resp)
}

// Jobs lists the background jobs and their last runs
func (h *SystemHandler) Jobs(c *gin.Context) {
	if h.jobs == nil {
		h.Success(c, []scheduler.JobState{})
		return
	}
	h.Success(c, h.jobs.States())
}
