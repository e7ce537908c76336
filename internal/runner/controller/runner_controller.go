package controller

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/runner/service"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/sandbox/engine"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/contextkey"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/response"
)

const (
	defaultTimeLimitMs = 5000
	defaultMemoryMB    = 256
)

// RunnerController handles toolchain and run requests.
type RunnerController struct {
	registry *service.Registry
}

// NewRunnerController creates a new controller.
func NewRunnerController(registry *service.Registry) *RunnerController {
	return &RunnerController{registry: registry}
}

// GetToolchains returns the compiler catalog. "?rescan=1" bypasses the
// cache and probes again.
func (h *RunnerController) GetToolchains(c *gin.Context) {
	rescan := c.Query("rescan") == "1" || c.Query("rescan") == "true"
	report := h.registry.Toolchains(c.Request.Context(), rescan)
	response.Success(c, report)
}

type runRequest struct {
	Source            string   `json:"source" binding:"required"`
	FileName          string   `json:"fileName"`
	Language          string   `json:"language" binding:"required"`
	ToolchainPath     string   `json:"toolchainPath"`
	Input             string   `json:"input"`
	TimeLimitMs       int64    `json:"timeLimitMs"`
	MemoryMB          int64    `json:"memoryMb"`
	OptimizationLevel string   `json:"optimizationLevel"`
	LanguageStandard  string   `json:"languageStandard"`
	ExtraFlags        []string `json:"extraFlags"`
}

// Run compiles and executes one submission.
func (h *RunnerController) Run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid run request: "+err.Error())
		return
	}
	if req.TimeLimitMs <= 0 {
		req.TimeLimitMs = defaultTimeLimitMs
	}
	if req.MemoryMB <= 0 {
		req.MemoryMB = defaultMemoryMB
	}

	runID := uuid.NewString()
	ctx := context.WithValue(c.Request.Context(), contextkey.RunID, runID)

	outcome, err := h.registry.Run(ctx, service.RunRequest{
		Source:        req.Source,
		FileName:      req.FileName,
		Language:      req.Language,
		ToolchainPath: req.ToolchainPath,
		Input:         req.Input,
		TimeLimitMs:   req.TimeLimitMs,
		MemoryMB:      req.MemoryMB,
		Options: engine.Options{
			OptimizationLevel: req.OptimizationLevel,
			LanguageStandard:  req.LanguageStandard,
			ExtraFlags:        req.ExtraFlags,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"runId":   runID,
		"outcome": outcome,
	})
}
