package database

import (
	"context"
	"errors"

	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"gorm.io/gorm"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db}
}

// Create inserts a new account. The first account created while no admin
// exists is bootstrapped as admin. A taken email yields errs.ErrDuplicateEmail;
// the unique index is the source of truth, so concurrent registrations with
// the same email are rejected the same way.
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	user, err := r.create(ctx, name, email, passwordHash, true)
	if errs.IsUniqueConstraintViolationError(err) {
		// Another registration may have claimed the admin slot between our
		// count and insert. Retry as an ordinary account; a taken email
		// fails again the same way.
		user, err = r.create(ctx, name, email, passwordHash, false)
	}
	if err != nil {
		if errs.IsUniqueConstraintViolationError(err) {
			return nil, errs.NewDuplicateEmailError(err)
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) create(ctx context.Context, name, email, passwordHash string, mayBootstrap bool) (*models.User, error) {
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}

	err := withTx(ctx, r.db, "create user", func(tx *gorm.DB) error {
		if mayBootstrap {
			var admins int64
			if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins == 0 {
				slot := true
				user.Role = models.RoleAdmin
				user.AdminSlot = &slot
			}
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail returns the user registered with email, or nil when none is.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.TranslateDB(err)
	}
	return &user, nil
}

// FindByID returns the user with id, or nil when none exists.
func (r *UserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.TranslateDB(err)
	}
	return &user, nil
}

// Count returns the number of registered users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, errs.TranslateDB(err)
}
