package core

import (
	"context"
	"errors"
	"strings"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

type AccountService struct {
	accounts repository.AccountRepository
}

func NewAccountService(accounts repository.AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// Verify consumes a verification token. It races the reaper: whichever
// commits first on the account row wins.
func (s *AccountService) Verify(ctx context.Context, token string) (*model.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, validationf("token is required")
	}

	acc, err := s.accounts.Verify(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("verification token")
	}
	if err != nil {
		return nil, storage("verify account", err)
	}

	log.Ctx(ctx).Info().Str("account_id", acc.ID).Msg("Account verified")
	return acc, nil
}
