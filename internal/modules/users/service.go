package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DonaldKnut/marketdotcom/internal/shared/apperr"
)

const (
	bcryptCost             = 12
	verificationCodeTTL    = 10 * time.Minute
	minPasswordLength      = 6
	referralCodeBytes      = 6
	verificationCodeDigits = 6
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

type RegisterInput struct {
	Name       string
	Email      string
	Phone      string
	Password   string
	ReferredBy string // optional referral code of an existing user
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" || in.Password == "" {
		return User{}, apperr.InvalidErr("All fields are required.", nil)
	}
	if len(in.Password) < minPasswordLength {
		return User{}, apperr.InvalidErr("Password must be at least 6 characters.", map[string]string{"password": "too short"})
	}

	var existing User
	err := s.db.WithContext(ctx).First(&existing, "email = ?", email).Error
	if err == nil {
		return User{}, apperr.ConflictErr("A user with this email already exists.")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return User{}, err
	}

	var referredBy *string
	if code := strings.TrimSpace(in.ReferredBy); code != "" {
		var ref User
		if err := s.db.WithContext(ctx).First(&ref, "referral_code = ?", code).Error; err == nil {
			referredBy = &ref.ID
		}
		// unknown referral codes are ignored, not an error
	}

	now := time.Now()
	code := verificationCode()
	expiry := now.Add(verificationCodeTTL)

	var phone *string
	if p := strings.TrimSpace(in.Phone); p != "" {
		phone = &p
	}

	u := User{
		ID:                    uuid.NewString(),
		Name:                  name,
		Email:                 email,
		Phone:                 phone,
		PasswordHash:          string(hash),
		Role:                  RoleCustomer,
		ReferralCode:          referralCode(),
		ReferredByID:          referredBy,
		EmailVerificationCode: &code,
		VerificationExpiresAt: &expiry,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		if isDup(err) {
			// lost the race on the unique email index
			return User{}, apperr.ConflictErr("A user with this email already exists.")
		}
		return User{}, err
	}
	return u, nil
}

// Authenticate checks email+password and returns the user on success.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// VerifyEmail consumes a pending verification code.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return apperr.InvalidErr("Email and code are required.", nil)
	}

	var u User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundErr("User not found.")
		}
		return err
	}
	if u.EmailVerifiedAt != nil {
		return nil // already verified
	}
	if u.EmailVerificationCode == nil || *u.EmailVerificationCode != code {
		return apperr.InvalidErr("Invalid verification code.", nil)
	}
	if u.VerificationExpiresAt != nil && time.Now().After(*u.VerificationExpiresAt) {
		return apperr.InvalidErr("Verification code expired.", nil)
	}

	now := time.Now()
	return s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"email_verified_at":       now,
			"email_verification_code": nil,
			"updated_at":              now,
		}).Error
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, apperr.NotFoundErr("User not found.")
		}
		return User{}, err
	}
	return u, nil
}

func referralCode() string {
	b := make([]byte, referralCodeBytes)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()[:12]
	}
	return hex.EncodeToString(b)
}

func verificationCode() string {
	max := big.NewInt(1)
	for i := 0; i < verificationCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "000000"
	}
	return fmt.Sprintf("%0*d", verificationCodeDigits, n)
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
