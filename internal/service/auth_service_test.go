package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rag-chatbot-be/internal/dto"
	"rag-chatbot-be/internal/entity"
	"rag-chatbot-be/internal/repository/contract"
	"rag-chatbot-be/internal/repository/specification"
	"rag-chatbot-be/internal/repository/unitofwork"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserRepository struct {
	user    *entity.User
	findErr error
	created *entity.User
}

func (f *fakeUserRepository) Create(_ context.Context, user *entity.User) error {
	f.created = user
	return nil
}

func (f *fakeUserRepository) Update(context.Context, *entity.User) error { return nil }
func (f *fakeUserRepository) Delete(context.Context, uuid.UUID) error    { return nil }

func (f *fakeUserRepository) FindOne(context.Context, ...specification.Specification) (*entity.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.user, nil
}

func (f *fakeUserRepository) FindAll(context.Context, ...specification.Specification) ([]*entity.User, error) {
	return nil, nil
}

func (f *fakeUserRepository) Count(context.Context, ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeUnitOfWork struct {
	users *fakeUserRepository
}

func (f *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error               { return nil }
func (f *fakeUnitOfWork) Rollback() error             { return nil }

func (f *fakeUnitOfWork) UserRepository() contract.UserRepository { return f.users }
func (f *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return nil
}
func (f *fakeUnitOfWork) DocumentChunkRepository() contract.DocumentChunkRepository {
	return nil
}
func (f *fakeUnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return nil
}
func (f *fakeUnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return nil
}

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeRepositoryFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return f.uow
}

func newAuthFixture(users *fakeUserRepository) IAuthService {
	return NewAuthService(&fakeRepositoryFactory{uow: &fakeUnitOfWork{users: users}})
}

func seedUser(t *testing.T, password string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{
		Id:           uuid.New(),
		Email:        "user@example.com",
		FullName:     "Test User",
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

func TestLoginSuccess(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := seedUser(t, "correct horse")
	svc := newAuthFixture(&fakeUserRepository{user: user})

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    user.Email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, user.Id, resp.User.Id)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, user.Id.String(), claims["user_id"])
}

func TestLoginWrongPassword(t *testing.T) {
	user := seedUser(t, "correct horse")
	svc := newAuthFixture(&fakeUserRepository{user: user})

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    user.Email,
		Password: "battery staple",
	})

	var unauthorized *dto.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newAuthFixture(&fakeUserRepository{})

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	var unauthorized *dto.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

// A repository failure is an internal fault, not a credentials problem.
func TestLoginRepositoryErrorIsNotUnauthorized(t *testing.T) {
	dbErr := errors.New("connection refused")
	svc := newAuthFixture(&fakeUserRepository{findErr: dbErr})

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "user@example.com",
		Password: "correct horse",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)

	var unauthorized *dto.UnauthorizedError
	assert.False(t, errors.As(err, &unauthorized))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	user := seedUser(t, "correct horse")
	svc := newAuthFixture(&fakeUserRepository{user: user})

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    user.Email,
		FullName: "Someone Else",
		Password: "battery staple",
	})

	var validation *dto.ValidationError
	assert.ErrorAs(t, err, &validation)
}
