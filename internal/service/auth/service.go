package auth

import (
	"context"
	"fmt"

	"github.com/physioflow/practice-api/internal/model"
	"github.com/physioflow/practice-api/internal/repository"
	"github.com/physioflow/practice-api/pkg/auth"
	apperrors "github.com/physioflow/practice-api/pkg/errors"
	"github.com/physioflow/practice-api/pkg/security"
)

type Service struct {
	therapists repository.TherapistRepository
	jwt        auth.JWTService
	hasher     security.PasswordHasher
}

func NewService(therapists repository.TherapistRepository, jwt auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{therapists: therapists, jwt: jwt, hasher: hasher}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	therapist, err := s.therapists.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	if err := s.hasher.Compare(therapist.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("invalid credentials"))
	}

	access, err := s.jwt.GenerateAccessToken(therapist.ID, therapist.Email, string(therapist.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(therapist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	therapistID, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	therapist, err := s.therapists.Get(ctx, therapistID)
	if err != nil {
		return nil, apperrors.Unauthorized(fmt.Errorf("therapist no longer exists"))
	}

	access, err := s.jwt.GenerateAccessToken(therapist.ID, therapist.Email, string(therapist.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(therapist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}
