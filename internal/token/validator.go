package token

import (
	"confreg/pkg/platform/middleware/auth"
)

// Validator adapts Service to the auth middleware's TokenValidator interface.
type Validator struct {
	svc *Service
}

func NewValidator(svc *Service) *Validator {
	return &Validator{svc: svc}
}

func (v *Validator) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims, err := v.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &auth.Claims{UserID: claims.UserID, Admin: claims.Admin}, nil
}
