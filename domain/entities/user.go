package entities

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role is the kind of account a user holds
type Role string

const (
	RoleParent Role = "parent"
	RoleImam   Role = "imam"
	RoleAdmin  Role = "admin"
)

// PasswordCost is the bcrypt cost factor for stored password hashes
const PasswordCost = 12

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleParent || r == RoleImam || r == RoleAdmin
}

// User represents a registered parent, imam or admin
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	Name         string             `json:"name" bson:"name"`
	Masjid       string             `json:"masjid" bson:"masjid"`
	Role         Role               `json:"role" bson:"role"`
	IsVerified   bool               `json:"isVerified" bson:"isVerified"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SetPassword replaces the stored hash with a salted bcrypt hash of password
func (u *User) SetPassword(password string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Validate checks the fields a stored user must carry
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Masjid == "" {
		return errors.New("masjid is required")
	}
	if !u.Role.Valid() {
		return errors.New("invalid role")
	}
	return nil
}
