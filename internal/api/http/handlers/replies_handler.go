package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finalapps/orbit/internal/api/dto"
	"github.com/finalapps/orbit/internal/auth"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/service"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// RepliesHandler records operator replies and outcome revisions.
type RepliesHandler struct {
	scoring *service.ScoringService
}

// NewRepliesHandler constructs handler.
func NewRepliesHandler(scoringService *service.ScoringService) *RepliesHandler {
	return &RepliesHandler{scoring: scoringService}
}

// Submit POST /inquiries/:id/replies. Operators reply to their own
// assignments; admins may reply on behalf of the assigned operator.
func (h *RepliesHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.SubmitReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	operatorID := principal.SubjectID
	if principal.Role == domain.RoleAdmin {
		if override := c.Query("operator_id"); override != "" {
			operatorID = override
		}
	}

	reply, err := h.scoring.SubmitReply(c.Context(), service.ReplyInput{
		InquiryID:  c.Params("id"),
		OperatorID: operatorID,
		Body:       req.Body,
		Outcome:    req.Outcome,
	}, time.Now())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": replyResponse(reply)})
}

// ReviseOutcome PATCH /replies/:id/outcome.
func (h *RepliesHandler) ReviseOutcome(c *fiber.Ctx) error {
	var req dto.ReviseOutcomeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	reply, err := h.scoring.ReviseOutcome(c.Context(), c.Params("id"), req.Outcome)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": replyResponse(reply)})
}

func replyResponse(reply *domain.Reply) dto.ReplyResponse {
	return dto.ReplyResponse{
		ID:               reply.ID,
		InquiryID:        reply.InquiryID,
		OperatorID:       reply.OperatorID,
		Body:             reply.Body,
		ScoreSpeed:       reply.ScoreSpeed,
		ScoreQuality:     reply.ScoreQuality,
		ScoreOutcome:     reply.ScoreOutcome,
		TotalScore:       reply.TotalScore,
		ReplyTimeMinutes: reply.ReplyTimeMinutes,
		RepliedAt:        reply.RepliedAt,
		CreatedAt:        reply.CreatedAt,
	}
}
