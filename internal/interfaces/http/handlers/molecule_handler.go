package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSieve/internal/application/screening"
	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
	ptypes "github.com/turtacn/MolSieve/pkg/types/screening"
)

// MoleculeHandler serves single-structure validation and prediction.
type MoleculeHandler struct {
	svc    screening.Service
	logger logging.Logger
}

func NewMoleculeHandler(svc screening.Service, logger logging.Logger) *MoleculeHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MoleculeHandler{svc: svc, logger: logger}
}

// RegisterRoutes mounts the handler under /molecule.
func (h *MoleculeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/molecule")
	g.POST("/validate-structure", h.ValidateStructure)
	g.POST("/predict-properties", h.PredictProperties)
}

// ValidateStructure handles POST /api/v1/molecule/validate-structure.
func (h *MoleculeHandler) ValidateStructure(c *gin.Context) {
	var req ptypes.ValidateStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, errors.InvalidParam("SMILES is required for structure validation"))
		return
	}
	rep, err := h.svc.ValidateStructure(c.Request.Context(), req.SMILES)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// PredictProperties handles POST /api/v1/molecule/predict-properties.
func (h *MoleculeHandler) PredictProperties(c *gin.Context) {
	var req ptypes.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeAppError(c, errors.InvalidParam("invalid request body").WithDetail(err.Error()))
		return
	}
	res, err := h.svc.PredictProperties(c.Request.Context(), &req)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

//Personal.AI order the ending
