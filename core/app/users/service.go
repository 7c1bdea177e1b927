package users

import (
	"errors"
	"fmt"
	"math"
	"time"

	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/types"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	CreateUserEvent = "users.create"
	DeleteUserEvent = "users.delete"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrLastAdmin          = errors.New("cannot delete the last admin user")
)

type UserService struct {
	db      *gorm.DB
	emitter *emitter.Emitter
	logger  logger.Logger
	now     func() time.Time
}

func NewUserService(db *gorm.DB, emitter *emitter.Emitter, logger logger.Logger) *UserService {
	if db == nil {
		panic("db is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &UserService{
		db:      db,
		emitter: emitter,
		logger:  logger,
		now:     time.Now,
	}
}

// Create creates a new admin user
func (s *UserService) Create(req *CreateUserRequest) (*User, error) {
	email := normalizeEmail(req.Email)

	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", logger.Err(err))
		return nil, err
	}

	item := &User{
		Name:     req.Name,
		Email:    email,
		Password: string(hashedPassword),
		IsActive: true,
	}

	if err := s.db.Create(item).Error; err != nil {
		s.logger.Error("failed to create user", logger.Err(err))
		return nil, err
	}

	s.emitter.Emit(CreateUserEvent, item)

	return item, nil
}

// GetById gets a user by ID
func (s *UserService) GetById(id uint) (*User, error) {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("Database error while fetching user", logger.Uint("user_id", id), logger.Err(err))
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Authenticate checks the credentials and records the login time
func (s *UserService) Authenticate(email, password string) (*User, error) {
	var user User
	err := s.db.Where("email = ? AND is_active = ?", normalizeEmail(email), true).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Info("Invalid password provided", logger.Uint("user_id", user.Id))
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		s.logger.Warn("failed to record last login", logger.Uint("user_id", user.Id), logger.Err(err))
	}

	return &user, nil
}

// Delete deletes an admin user, keeping at least one
func (s *UserService) Delete(id uint) error {
	item := &User{}
	if err := s.db.First(item, id).Error; err != nil {
		s.logger.Error("failed to find user for deletion", logger.Err(err), logger.Uint("id", id))
		return err
	}

	var total int64
	if err := s.db.Model(&User{}).Count(&total).Error; err != nil {
		return err
	}
	if total <= 1 {
		return ErrLastAdmin
	}

	if err := s.db.Delete(item).Error; err != nil {
		s.logger.Error("failed to delete user", logger.Err(err), logger.Uint("id", id))
		return err
	}

	s.emitter.Emit(DeleteUserEvent, item)

	return nil
}

// GetAll gets all users with pagination
func (s *UserService) GetAll(page, limit int) (*types.PaginatedResponse, error) {
	var items []*User
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	query := s.db.Model(&User{})
	if err := query.Count(&total).Error; err != nil {
		s.logger.Error("failed to count users", logger.Err(err))
		return nil, err
	}

	if err := query.Order("id asc").Offset((page - 1) * limit).Limit(limit).Find(&items).Error; err != nil {
		s.logger.Error("failed to get users", logger.Err(err))
		return nil, err
	}

	responses := make([]*UserResponse, len(items))
	for i, item := range items {
		responses[i] = item.ToResponse()
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	if totalPages == 0 {
		totalPages = 1
	}

	return &types.PaginatedResponse{
		Data: responses,
		Pagination: types.Pagination{
			Total:      int(total),
			Page:       page,
			PageSize:   limit,
			TotalPages: totalPages,
		},
	}, nil
}

// UpdatePassword updates own password (requires old password verification)
func (s *UserService) UpdatePassword(id uint, req *UpdatePasswordRequest) error {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		s.logger.Info("Invalid old password provided", logger.Uint("user_id", id))
		return bcrypt.ErrMismatchedHashAndPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		s.logger.Error("Failed to save new password", logger.Err(err), logger.Uint("user_id", id))
		return fmt.Errorf("failed to update user password: %w", err)
	}

	return nil
}

// EnsureAdmin creates the configured admin account when no user exists
func (s *UserService) EnsureAdmin(email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := s.db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.Create(&CreateUserRequest{Name: "Admin", Email: email, Password: password}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	s.logger.Info("Seeded admin user", logger.String("email", normalizeEmail(email)))
	return nil
}
