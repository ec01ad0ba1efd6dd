package service

import (
	"context"
	"strings"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
}

type RegisterInput struct {
	DisplayName     string
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	AgreeToTerms    bool
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Register validates every field, reports all failures together and creates
// a regular (non-staff) account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	var fields []models.FieldError
	add := func(field, reason string) {
		fields = append(fields, models.FieldError{Field: field, Reason: reason})
	}

	if in.DisplayName == "" {
		add("display_name", models.ReasonRequired)
	} else if validation.ValidateDisplayName(in.DisplayName) != nil {
		add("display_name", models.ReasonInvalid)
	}

	usernameOK := false
	if in.Username == "" {
		add("username", models.ReasonRequired)
	} else if validation.ValidateUsername(in.Username) != nil {
		add("username", models.ReasonInvalid)
	} else {
		usernameOK = true
	}

	emailOK := false
	if in.Email == "" {
		add("email", models.ReasonRequired)
	} else if validation.ValidateEmail(in.Email) != nil {
		add("email", models.ReasonInvalid)
	} else {
		emailOK = true
	}

	switch {
	case in.Password == "":
		add("password", models.ReasonRequired)
	case len(in.Password) < 8:
		add("password", models.ReasonTooShort)
	case len(in.Password) > validation.MaxPasswordBytes:
		add("password", models.ReasonTooLong)
	case validation.ValidatePassword(in.Password) != nil:
		add("password", models.ReasonInvalid)
	}
	if in.Password != in.PasswordConfirm {
		add("password_confirm", models.ReasonMismatch)
	}
	if !in.AgreeToTerms {
		add("agree_to_terms", models.ReasonRequired)
	}

	if usernameOK {
		existing, err := s.userRepo.GetByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			add("username", models.ReasonTaken)
		}
	}
	if emailOK {
		existing, err := s.userRepo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			add("email", models.ReasonTaken)
		}
	}

	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		DisplayName: in.DisplayName,
		Username:    in.Username,
		Email:       in.Email,
		Password:    string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}
