package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSieve/internal/application/generation"
	"github.com/turtacn/MolSieve/internal/application/screening"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// GeneratorHandler serves candidate generation, batch validation and run
// history.
type GeneratorHandler struct {
	gen    generation.Service
	screen screening.Service
	logger logging.Logger
}

func NewGeneratorHandler(gen generation.Service, screen screening.Service, logger logging.Logger) *GeneratorHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GeneratorHandler{gen: gen, screen: screen, logger: logger}
}

// RegisterRoutes mounts the handler under /generator.
func (h *GeneratorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/generator")
	g.POST("/run", h.Run)
	g.POST("/validate-batch", h.ValidateBatch)
	g.GET("/runs", h.ListRuns)
	g.GET("/runs/:id", h.GetRun)
}

// Run handles POST /api/v1/generator/run.  Failures keep the response
// shape: {ok:false, total:0, generated:[], error}.
func (h *GeneratorHandler) Run(c *gin.Context) {
	var req ptypes.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, errors.InvalidParam("invalid request body").WithDetail(err.Error()))
		return
	}
	resp, err := h.gen.Generate(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GeneratorHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	msg := err.Error()
	var ae *errors.AppError
	if errors.As(err, &ae) {
		msg = ae.Message
	}
	c.AbortWithStatusJSON(statusFor(err), ptypes.GenerateResponse{
		OK:        false,
		Generated: []ptypes.Candidate{},
		Error:     msg,
	})
}

// ValidateBatch handles POST /api/v1/generator/validate-batch.
func (h *GeneratorHandler) ValidateBatch(c *gin.Context) {
	var req ptypes.BatchValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, errors.InvalidParam("smiles_list must be a list").WithDetail(err.Error()))
		return
	}
	resp, err := h.screen.BatchValidate(c.Request.Context(), req.SMILESList)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun handles GET /api/v1/generator/runs/:id.
func (h *GeneratorHandler) GetRun(c *gin.Context) {
	run, err := h.gen.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRuns handles GET /api/v1/generator/runs?limit=&offset=.
func (h *GeneratorHandler) ListRuns(c *gin.Context) {
	limit, offset := parsePagination(c)
	runs, err := h.gen.ListRuns(c.Request.Context(), limit, offset)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
}

//Personal.AI order the ending
