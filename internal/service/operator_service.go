package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/finalapps/orbit/internal/domain"
	"github.com/finalapps/orbit/internal/repository"
	apperrors "github.com/finalapps/orbit/pkg/util"
)

// OperatorService manages the operator roster and its reporting views.
type OperatorService struct {
	operators repository.OperatorRepository
	validate  *validator.Validate
}

// NewOperatorService creates the service.
func NewOperatorService(operators repository.OperatorRepository) *OperatorService {
	return &OperatorService{operators: operators, validate: validator.New()}
}

// OperatorInput carries roster mutations.
type OperatorInput struct {
	Name   string `validate:"required,max=200"`
	Email  string `validate:"required,email"`
	Active *bool
}

// Create registers a new operator, active by default.
func (s *OperatorService) Create(ctx context.Context, input OperatorInput) (*domain.Operator, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("invalid operator", map[string]any{"reason": err.Error()})
	}

	operator := &domain.Operator{
		Name:   strings.TrimSpace(input.Name),
		Email:  strings.ToLower(strings.TrimSpace(input.Email)),
		Active: true,
	}
	if input.Active != nil {
		operator.Active = *input.Active
	}
	if err := s.operators.Create(ctx, operator); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicate("email already registered", map[string]any{"email": operator.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return operator, nil
}

// Update changes an operator's name, email or active flag. Deactivation
// removes the operator from future balancer picks; open assignments run
// their course and escalate normally.
func (s *OperatorService) Update(ctx context.Context, id string, input OperatorInput) (*domain.Operator, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.NewValidationError("invalid operator", map[string]any{"reason": err.Error()})
	}

	operator, err := s.operators.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("operator", map[string]any{"operator_id": id})
		}
		return nil, apperrors.MapError(err)
	}

	operator.Name = strings.TrimSpace(input.Name)
	operator.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Active != nil {
		operator.Active = *input.Active
	}
	if err := s.operators.Update(ctx, operator); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicate("email already registered", map[string]any{"email": operator.Email})
		}
		return nil, apperrors.MapError(err)
	}
	return operator, nil
}

// Get returns one operator.
func (s *OperatorService) Get(ctx context.Context, id string) (*domain.Operator, error) {
	operator, err := s.operators.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("operator", map[string]any{"operator_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return operator, nil
}

// List returns operators matching the filter.
func (s *OperatorService) List(ctx context.Context, filter repository.OperatorFilter) ([]domain.Operator, error) {
	operators, err := s.operators.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return operators, nil
}

// Leaderboard ranks operators by total score.
func (s *OperatorService) Leaderboard(ctx context.Context, limit int) ([]domain.Operator, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	ranked, err := s.operators.Leaderboard(ctx, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return ranked, nil
}

// Workload returns active operators with their count of open assignments.
func (s *OperatorService) Workload(ctx context.Context) ([]repository.OperatorWorkload, error) {
	workloads, err := s.operators.ListWithWorkload(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return workloads, nil
}
