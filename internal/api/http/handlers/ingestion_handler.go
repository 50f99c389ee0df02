package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finalapps/orbit/internal/api/dto"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/service"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// IngestionHandler accepts raw candidates from the harvester.
type IngestionHandler struct {
	service *service.IngestionService
}

// NewIngestionHandler constructs handler.
func NewIngestionHandler(ingestionService *service.IngestionService) *IngestionHandler {
	return &IngestionHandler{service: ingestionService}
}

// Ingest POST /ingest.
func (h *IngestionHandler) Ingest(c *fiber.Ctx) error {
	var req dto.CandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Ingest(c.Context(), candidateFromRequest(req), time.Now())
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.Outcome == service.OutcomeAdmitted {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": ingestResultResponse(result)})
}

// IngestBatch POST /ingest/batch.
func (h *IngestionHandler) IngestBatch(c *fiber.Ctx) error {
	var req dto.IngestBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.Candidates) == 0 {
		return apperrors.NewValidationError("candidates required", nil)
	}

	candidates := make([]domain.Candidate, 0, len(req.Candidates))
	for _, cand := range req.Candidates {
		candidates = append(candidates, candidateFromRequest(cand))
	}

	report := h.service.IngestBatch(c.Context(), candidates, time.Now())
	return c.JSON(fiber.Map{"data": batchResponse(report)})
}

func candidateFromRequest(req dto.CandidateRequest) domain.Candidate {
	return domain.Candidate{
		ExternalRef: req.ExternalRef,
		Title:       req.Title,
		Body:        req.Body,
		Views:       req.Views,
		Replies:     req.Replies,
		Likes:       req.Likes,
	}
}

func ingestResultResponse(result *service.IngestResult) dto.IngestResultResponse {
	resp := dto.IngestResultResponse{
		Outcome:        string(result.Outcome),
		RelevanceScore: result.RelevanceScore,
		Error:          result.Error,
	}
	if result.Inquiry != nil {
		summary := inquirySummary(result.Inquiry)
		resp.Inquiry = &summary
	}
	return resp
}

func batchResponse(report *service.BatchReport) dto.IngestBatchResponse {
	results := make([]dto.IngestResultResponse, 0, len(report.Results))
	for i := range report.Results {
		results = append(results, ingestResultResponse(&report.Results[i]))
	}
	return dto.IngestBatchResponse{
		Admitted:   report.Admitted,
		Rejected:   report.Rejected,
		Duplicates: report.Duplicates,
		Failed:     report.Failed,
		Results:    results,
	}
}
