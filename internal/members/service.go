package members

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/memberclub-backend/pkg/config"
	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/db/models"
	"github.com/angelmondragon/memberclub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/memberclub-backend/pkg/errors"
	"github.com/angelmondragon/memberclub-backend/pkg/security"
)

const emailConstraint = "members_email_key"

var validate = validator.New()

type tierLookup interface {
	FindByName(ctx context.Context, name string) (*models.MembershipTier, error)
}

// CreateInput is the operator-supplied data for a new member.
type CreateInput struct {
	Email       string `validate:"required,email"`
	DisplayName string `validate:"required,max=120"`
	Password    string `validate:"required,min=8"`
	Role        enums.MemberRole
	TierName    string
}

// MemberDTO is the public projection of a member.
type MemberDTO struct {
	ID                uuid.UUID        `json:"id"`
	Email             string           `json:"email"`
	DisplayName       string           `json:"display_name"`
	Role              enums.MemberRole `json:"role"`
	TierID            *uuid.UUID       `json:"tier_id,omitempty"`
	CashbackBalance   string           `json:"cashback_balance"`
	CashbackExpiresAt *time.Time       `json:"cashback_expires_at,omitempty"`
}

// Service manages member records.
type Service struct {
	repo     *Repository
	tiers    tierLookup
	password config.PasswordConfig
}

// NewService builds the member service.
func NewService(repo *Repository, tiers tierLookup, password config.PasswordConfig) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if tiers == nil {
		return nil, fmt.Errorf("tier lookup required")
	}
	return &Service{repo: repo, tiers: tiers, password: password}, nil
}

// Create hashes the password, resolves the optional tier by name and stores the member.
func (s *Service) Create(ctx context.Context, input CreateInput) (*MemberDTO, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid member input").
			WithDetails(fieldErrors(err))
	}
	role := input.Role
	if role == "" {
		role = enums.MemberRoleUser
	}
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}

	// Checked before hashing; the unique index still settles concurrent creates.
	switch _, err := s.repo.FindByEmail(ctx, input.Email); {
	case err == nil:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.FromStore(err, "check member email")
	}

	var tierID *uuid.UUID
	if name := strings.TrimSpace(input.TierName); name != "" {
		tier, err := s.tiers.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("membership tier %q not found", name))
			}
			return nil, pkgerrors.FromStore(err, "load membership tier")
		}
		tierID = &tier.ID
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}

	member := &models.Member{
		Email:           input.Email,
		DisplayName:     input.DisplayName,
		PasswordHash:    hash,
		Role:            role,
		TierID:          tierID,
		CashbackBalance: decimal.Zero,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		if db.IsUniqueViolation(err, emailConstraint) || db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.FromStore(err, "create member")
	}

	dto := ToDTO(*member)
	return &dto, nil
}

// Get returns the member projection.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
		}
		return nil, pkgerrors.FromStore(err, "load member")
	}
	dto := ToDTO(*member)
	return &dto, nil
}

// ToDTO maps a persisted member to its public projection.
func ToDTO(member models.Member) MemberDTO {
	return MemberDTO{
		ID:                member.ID,
		Email:             member.Email,
		DisplayName:       member.DisplayName,
		Role:              member.Role,
		TierID:            member.TierID,
		CashbackBalance:   member.CashbackBalance.StringFixed(2),
		CashbackExpiresAt: member.CashbackExpiresAt,
	}
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return out
}
