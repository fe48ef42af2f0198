package auth

import (
	"context"
	"net/http"

	"github.com/drewzeee/WealthVue-sub001/internal/user"
)

type Service interface {
	Login(ctx context.Context, email, password string) (string, *user.User, error)
	Register(ctx context.Context, email, displayName, password string) (string, *user.User, error)
	JWTAccessTokenMiddleware() func(http.Handler) http.Handler
}

type service struct {
	userService user.Service
	jwtManager  JWTManagerInterface
}

func NewAuthService(userService user.Service, jwtManager JWTManagerInterface) Service {
	return &service{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

func (s *service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	authedUser, err := s.userService.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.jwtManager.GenerateAccessJWT(authedUser.ID, defaultJWTDuration)
	if err != nil {
		return "", nil, err
	}
	return token, authedUser, nil
}

func (s *service) Register(ctx context.Context, email, displayName, password string) (string, *user.User, error) {
	newUser, err := s.userService.Register(ctx, email, displayName, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.jwtManager.GenerateAccessJWT(newUser.ID, defaultJWTDuration)
	if err != nil {
		return "", nil, err
	}
	return token, newUser, nil
}
