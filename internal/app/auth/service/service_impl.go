package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/misgastos/expenses-api/internal/adapters/transport/http/dto"
	customErrors "github.com/misgastos/expenses-api/internal/domain/auth/errors"
	"github.com/misgastos/expenses-api/internal/domain/auth/hash"
	"github.com/misgastos/expenses-api/internal/domain/auth/model"
	"github.com/misgastos/expenses-api/internal/domain/auth/repo"
	"github.com/misgastos/expenses-api/internal/domain/auth/token"
)

type authService struct {
	userRepo repo.UserRepo
	hasher   hash.Hasher
	codec    token.Codec
	v        *validator.Validate
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.PublicUser, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	CurrentUser(ctx context.Context, accessToken string) (model.User, error)
}

func New(
	ur repo.UserRepo,
	h hash.Hasher,
	c token.Codec,
	v *validator.Validate,
) Service {
	return &authService{
		userRepo: ur, hasher: h, codec: c, v: v,
	}
}

func (a *authService) Register(ctx context.Context, dto dto.RegisterDTO) (model.PublicUser, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.PublicUser{}, customErrors.NewInvalidArgument(err.Error())
	}

	_, err := a.userRepo.GetUserByEmail(ctx, dto.Email)
	switch {
	case err == nil:
		return model.PublicUser{}, customErrors.ErrEmailTaken
	case !errors.Is(err, customErrors.ErrNotFound):
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	passwordHash, err := a.hasher.Hash(dto.Password)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: passwordHash,
		IsActive:     true,
	}

	id, err := a.userRepo.CreateUser(ctx, user)
	if err != nil {
		// concurrent registration races resolve at the unique index
		if errors.Is(err, customErrors.ErrEmailTaken) {
			return model.PublicUser{}, customErrors.ErrEmailTaken
		}
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	created, err := a.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, customErrors.WrapInternal(err, "Register")
	}

	return created.Public(), nil
}

func (a *authService) Login(ctx context.Context, dto dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	// Unknown email, wrong password and deactivated account all collapse
	// into the same failure so callers cannot probe which emails exist.
	user, err := a.userRepo.GetUserByEmail(ctx, dto.Email)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	if !a.hasher.Verify(dto.Password, user.PasswordHash) {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	return a.issueTokens(user)
}

func (a *authService) Refresh(ctx context.Context, dto dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(dto); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.codec.Decode(dto.RefreshToken)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidRefreshToken
	}
	if claims.Kind != token.KindRefresh {
		return model.TokenPair{}, customErrors.ErrInvalidRefreshToken
	}

	user, err := a.userRepo.GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrUserNotFound
	case err != nil:
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	// Rotation issues a fresh pair; the old refresh token stays valid until
	// its exp since nothing is stored server-side.
	return a.issueTokens(user)
}

func (a *authService) CurrentUser(ctx context.Context, accessToken string) (model.User, error) {
	claims, err := a.codec.Decode(accessToken)
	if err != nil {
		return model.User{}, customErrors.ErrUnauthenticated
	}
	if claims.Kind != token.KindAccess {
		return model.User{}, customErrors.ErrUnauthenticated
	}

	user, err := a.userRepo.GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrUnauthenticated
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "CurrentUser")
	}

	if !user.IsActive {
		return model.User{}, customErrors.ErrUnauthenticated
	}

	return user, nil
}

func (a *authService) issueTokens(user model.User) (model.TokenPair, error) {
	at, atExp, err := a.codec.IssueAccess(user.ID, user.Email)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "IssueAccess")
	}
	rt, rtExp, err := a.codec.IssueRefresh(user.ID, user.Email)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "IssueRefresh")
	}

	now := time.Now()

	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		UserID:       user.ID,
	}, nil
}
