package service

import (
	"Driftline/internal/api/dto"
	"Driftline/internal/model"
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/kafka"
	"Driftline/internal/pkg/minio"
	"Driftline/internal/pkg/redis"
	"Driftline/internal/pkg/security"
	"Driftline/internal/repository"
	"context"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
)

type UserService interface {
	Register(ctx context.Context, regDTO *dto.RegisterDTO) error
	Login(ctx context.Context, credDTO *dto.CredentialDTO) (string, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error)
	GetIdentity(ctx context.Context, id uint64) (*dto.IdentityDTO, error)
	CancelUser(ctx context.Context, id uint64) error
}

type UserServiceImpl struct {
	userRepo repository.UserRepo
	producer *kafka.Producer
}

func NewUserService(userRepo repository.UserRepo, producer *kafka.Producer) UserService {
	return &UserServiceImpl{
		userRepo: userRepo,
		producer: producer,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) error {
	findUser, err := s.userRepo.GetUserByEmail(ctx, regDTO.Email)
	if err != nil {
		return err
	}
	if findUser != nil {
		return ErrUserEmailExist
	}

	passwordHash, err := security.HashPassword(regDTO.Password)
	if err != nil {
		return err
	}

	user := &model.User{
		Email:    &regDTO.Email,
		Name:     &regDTO.Name,
		Password: &passwordHash,
	}
	err = s.userRepo.CreateUser(ctx, user)
	if err != nil {
		return err
	}

	s.producer.PublishRow(consts.TableUsers, kafka.RowInsert, userRow(user))
	return nil
}

func (s *UserServiceImpl) Login(ctx context.Context, credDTO *dto.CredentialDTO) (string, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, credDTO.Email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.Password == nil {
		return "", ErrPasswordIncorrect
	}
	err = security.CheckPasswordHash(credDTO.Password, *user.Password)
	if err != nil {
		return "", ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Logout 把令牌签名写入黑名单，有效期和令牌一致
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, signature, true, security.JWTExpirationTime)
}

func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	userDTO := &dto.UserDTO{}
	err = copier.Copy(userDTO, user)
	if err != nil {
		return nil, err
	}
	if user.AvatarURL != nil {
		userDTO.AvatarURL = minio.GetPublicURL(*user.AvatarURL)
	}
	return userDTO, nil
}

// GetIdentity 返回消息展示用的发送者身份，已注销视同不存在
func (s *UserServiceImpl) GetIdentity(ctx context.Context, id uint64) (*dto.IdentityDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	identity := &dto.IdentityDTO{
		ID: strconv.FormatUint(user.ID, 10),
	}
	if user.Name != nil {
		identity.Name = *user.Name
	}
	if user.Email != nil {
		identity.Email = *user.Email
	}
	if user.AvatarURL != nil {
		identity.AvatarURL = minio.GetPublicURL(*user.AvatarURL)
	}
	return identity, nil
}

// CancelUser 注销账号并广播用户行变更，看板会因此刷新
func (s *UserServiceImpl) CancelUser(ctx context.Context, id uint64) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	err = s.userRepo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}

	user.IsDelete = true
	s.producer.PublishRow(consts.TableUsers, kafka.RowDelete, userRow(user))
	return nil
}

// userRow 行事件载荷，值统一为字符串
func userRow(user *model.User) map[string]interface{} {
	row := map[string]interface{}{
		"id":         strconv.FormatUint(user.ID, 10),
		"is_delete":  "0",
		"created_at": user.CreatedAt.Format(time.RFC3339Nano),
	}
	if user.IsDelete {
		row["is_delete"] = "1"
	}
	if user.Name != nil {
		row["name"] = *user.Name
	}
	if user.Email != nil {
		row["email"] = *user.Email
	}
	return row
}
