package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/memberclub-backend/pkg/enums"
)

// AccessTokenPayload captures the member data embedded when minting a JWT.
type AccessTokenPayload struct {
	MemberID uuid.UUID
	Role     enums.MemberRole
	TierID   *uuid.UUID
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by members.
type AccessTokenClaims struct {
	MemberID uuid.UUID        `json:"member_id"`
	Role     enums.MemberRole `json:"role"`
	TierID   *uuid.UUID       `json:"tier_id,omitempty"`
	jwt.RegisteredClaims
}
