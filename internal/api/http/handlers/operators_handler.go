package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/finalapps/orbit/internal/api/dto"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/repository"
	"github.com/finalapps/orbit/internal/service"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// OperatorsHandler manages the roster and reporting views.
type OperatorsHandler struct {
	operators *service.OperatorService
	scoring   *service.ScoringService
}

// NewOperatorsHandler constructs handler.
func NewOperatorsHandler(operatorService *service.OperatorService, scoringService *service.ScoringService) *OperatorsHandler {
	return &OperatorsHandler{operators: operatorService, scoring: scoringService}
}

// Create POST /operators.
func (h *OperatorsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOperatorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	operator, err := h.operators.Create(c.Context(), service.OperatorInput{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": operatorResponse(operator)})
}

// Update PATCH /operators/:id.
func (h *OperatorsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateOperatorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	operator, err := h.operators.Update(c.Context(), c.Params("id"), service.OperatorInput{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": operatorResponse(operator)})
}

// Get GET /operators/:id.
func (h *OperatorsHandler) Get(c *fiber.Ctx) error {
	operator, err := h.operators.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": operatorResponse(operator)})
}

// List GET /operators.
func (h *OperatorsHandler) List(c *fiber.Ctx) error {
	filter := repository.OperatorFilter{}
	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filter.Active = &active
	}
	operators, err := h.operators.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.OperatorResponse, 0, len(operators))
	for i := range operators {
		items = append(items, operatorResponse(&operators[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Leaderboard GET /operators/leaderboard.
func (h *OperatorsHandler) Leaderboard(c *fiber.Ctx) error {
	limit := parseQueryInt(c.Query("limit"), 10)
	ranked, err := h.operators.Leaderboard(c.Context(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.OperatorResponse, 0, len(ranked))
	for i := range ranked {
		items = append(items, operatorResponse(&ranked[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Workload GET /operators/workload.
func (h *OperatorsHandler) Workload(c *fiber.Ctx) error {
	workloads, err := h.operators.Workload(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.OperatorWorkloadResponse, 0, len(workloads))
	for i := range workloads {
		items = append(items, dto.OperatorWorkloadResponse{
			OperatorResponse: operatorResponse(&workloads[i].Operator),
			OpenLoad:         workloads[i].OpenLoad,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Recompute POST /operators/:id/recompute.
func (h *OperatorsHandler) Recompute(c *fiber.Ctx) error {
	operator, err := h.scoring.RecomputeOperator(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": operatorResponse(operator)})
}

func operatorResponse(operator *domain.Operator) dto.OperatorResponse {
	return dto.OperatorResponse{
		ID:             operator.ID,
		Name:           operator.Name,
		Email:          operator.Email,
		Active:         operator.Active,
		TotalReplied:   operator.TotalReplied,
		TotalMissed:    operator.TotalMissed,
		TotalScore:     operator.TotalScore,
		AvgReplyTime:   operator.AvgReplyTime,
		LastAssignedAt: operator.LastAssignedAt,
		CreatedAt:      operator.CreatedAt,
		UpdatedAt:      operator.UpdatedAt,
	}
}
