package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/finalapps/orbit/internal/api/dto"
	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/repository"
	"github.com/finalapps/orbit/internal/service"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// InquiriesHandler serves inquiry listings, detail and manual assignment.
type InquiriesHandler struct {
	inquiries  *service.InquiryService
	assignment *service.AssignmentService
}

// NewInquiriesHandler constructs handler.
func NewInquiriesHandler(inquiryService *service.InquiryService, assignmentService *service.AssignmentService) *InquiriesHandler {
	return &InquiriesHandler{inquiries: inquiryService, assignment: assignmentService}
}

// List GET /inquiries.
func (h *InquiriesHandler) List(c *fiber.Ctx) error {
	filter := parseInquiryQuery(c)
	inquiries, err := h.inquiries.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.InquirySummary, 0, len(inquiries))
	for i := range inquiries {
		items = append(items, inquirySummary(&inquiries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /inquiries/:id.
func (h *InquiriesHandler) Get(c *fiber.Ctx) error {
	detail, err := h.inquiries.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": inquiryDetail(detail)})
}

// Assign POST /inquiries/:id/assign.
func (h *InquiriesHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.OperatorID) == "" {
		return apperrors.NewValidationError("operator_id required", nil)
	}

	inquiry, err := h.assignment.ReassignToOperator(c.Context(), c.Params("id"), req.OperatorID, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": inquirySummary(inquiry)})
}

// Stats GET /stats.
func (h *InquiriesHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.inquiries.Stats(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		Total:      stats.Total,
		ByStatus:   stats.ByStatus,
		ByPriority: stats.ByPriority,
		ByCategory: stats.ByCategory,
	}})
}

// Activity GET /activity.
func (h *InquiriesHandler) Activity(c *fiber.Ctx) error {
	limit := parseQueryInt(c.Query("limit"), 50)
	records, err := h.inquiries.RecentActivity(c.Context(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.ActivityResponse, 0, len(records))
	for i := range records {
		items = append(items, activityResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseInquiryQuery(c *fiber.Ctx) repository.InquiryFilter {
	filter := repository.InquiryFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.InquiryStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.InquiryPriority(strings.TrimSpace(part)))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if operatorID := c.Query("assigned_to"); operatorID != "" {
		filter.AssignedTo = &operatorID
	}
	if from := parseQueryTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseQueryTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseQueryInt(c.Query("page"), 1)
	pageSize := parseQueryInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseQueryTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseQueryInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func inquirySummary(inquiry *domain.Inquiry) dto.InquirySummary {
	return dto.InquirySummary{
		ID:               inquiry.ID,
		ExternalRef:      inquiry.ExternalRef,
		Title:            inquiry.Title,
		Category:         inquiry.Category,
		Priority:         inquiry.Priority,
		Status:           inquiry.Status,
		AssignedTo:       inquiry.AssignedTo,
		BandwidthMinutes: inquiry.BandwidthMinutes,
		AssignedAt:       inquiry.AssignedAt,
		DeadlineAt:       inquiry.DeadlineAt,
		EscalationCount:  inquiry.EscalationCount,
		RelevanceScore:   inquiry.RelevanceScore,
		CreatedAt:        inquiry.CreatedAt,
		UpdatedAt:        inquiry.UpdatedAt,
	}
}

func inquiryDetail(detail *service.InquiryDetail) dto.InquiryDetailResponse {
	replies := make([]dto.ReplyResponse, 0, len(detail.Replies))
	for i := range detail.Replies {
		replies = append(replies, replyResponse(&detail.Replies[i]))
	}
	activity := make([]dto.ActivityResponse, 0, len(detail.Activity))
	for i := range detail.Activity {
		activity = append(activity, activityResponse(&detail.Activity[i]))
	}
	return dto.InquiryDetailResponse{
		InquirySummary: inquirySummary(detail.Inquiry),
		Content:        detail.Inquiry.Content,
		Replies:        replies,
		Activity:       activity,
	}
}

func activityResponse(record *domain.ActivityRecord) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          record.ID,
		InquiryID:   record.InquiryID,
		OperatorID:  record.OperatorID,
		Type:        record.Type,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
	}
}
