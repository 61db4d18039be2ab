// Package auth checks driver credentials, registers drivers and guards
// pages behind a signed-in session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/fleetdesk/taxi/internal/model"
	"github.com/fleetdesk/taxi/internal/repo"
	"github.com/fleetdesk/taxi/orm"
)

var (
	ErrBadCredentials = errors.New("auth: invalid username or password")
	ErrInvalidLicense = errors.New("auth: license number must be 3 uppercase letters followed by 5 digits")
	ErrUsernameTaken  = errors.New("auth: username already exists")
	ErrLicenseTaken   = errors.New("auth: license number already exists")
)

// dummyHash keeps the failed-lookup path as slow as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("taxi-dummy-password"), bcrypt.MinCost)

var licensePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{5}$`)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidateLicense checks the fleet license format: 8 characters, three
// uppercase letters then five digits.
func ValidateLicense(license string) error {
	if !licensePattern.MatchString(license) {
		return ErrInvalidLicense
	}
	return nil
}

// Authenticate returns the driver whose credentials match.
func Authenticate(ctx context.Context, drivers *repo.DriverRepository, username, password string) (model.Driver, error) {
	d, err := drivers.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, orm.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return model.Driver{}, ErrBadCredentials
	}
	if err != nil {
		return model.Driver{}, fmt.Errorf("authenticate: %w", err)
	}
	if !CheckPassword(d.PasswordHash, password) {
		return model.Driver{}, ErrBadCredentials
	}
	return d, nil
}

// NewDriver is the input of CreateDriver.
type NewDriver struct {
	Username      string
	Password      string
	FirstName     string
	LastName      string
	LicenseNumber string
}

// CreateDriver validates and stores a driver with a hashed password.
func CreateDriver(ctx context.Context, drivers *repo.DriverRepository, in NewDriver) (model.Driver, error) {
	username := strings.TrimSpace(in.Username)
	license := strings.TrimSpace(in.LicenseNumber)
	switch {
	case username == "":
		return model.Driver{}, errors.New("auth: username is required")
	case len(username) > 150:
		return model.Driver{}, errors.New("auth: username must be at most 150 characters")
	case in.Password == "":
		return model.Driver{}, errors.New("auth: password is required")
	}
	if err := ValidateLicense(license); err != nil {
		return model.Driver{}, err
	}

	taken, err := drivers.UsernameTaken(ctx, username)
	if err != nil {
		return model.Driver{}, err //nolint:wrapcheck // already wrapped
	}
	if taken {
		return model.Driver{}, ErrUsernameTaken
	}
	taken, err = drivers.LicenseTaken(ctx, license)
	if err != nil {
		return model.Driver{}, err //nolint:wrapcheck // already wrapped
	}
	if taken {
		return model.Driver{}, ErrLicenseTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return model.Driver{}, err
	}
	d := model.Driver{
		Username:      username,
		PasswordHash:  hash,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		LicenseNumber: license,
	}
	if err := drivers.Create(ctx, &d); err != nil {
		return model.Driver{}, err //nolint:wrapcheck // already wrapped
	}
	return d, nil
}
