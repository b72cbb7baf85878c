package identity

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pairview/pairview/internal/domain"
)

// Account is the dev identity service's credential record. The production
// identity service owns the real table; this one only backs local development
// and tests.
type Account struct {
	ID           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DateOfBirth  time.Time
	Gender       string `gorm:"size:16"`
	UserType     string `gorm:"size:16"`
	CreatedAt    time.Time
}

// DevServer is an embeddable identity service implementing the same HTTP
// contract the shell consumes remotely:
//
//	POST /auth/login    -> 200 {token, user} | 401
//	POST /auth/register -> 201 {token, user} | 409 | 422
//
// It re-validates registrations server-side (the identity service is
// authoritative), using the same superset rules as the client-side validator:
// password 8-100 characters and age of at least 18.
type DevServer struct {
	db *gorm.DB
}

// NewDevServer creates a DevServer over the given database and migrates its
// account table.
func NewDevServer(db *gorm.DB) (*DevServer, error) {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, err
	}
	return &DevServer{db: db}, nil
}

// Mount registers the identity endpoints on the given router group.
func (s *DevServer) Mount(g *gin.RouterGroup) {
	g.POST("/auth/login", s.login)
	g.POST("/auth/register", s.register)
}

type wireUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Gender   string `json:"gender"`
	UserType string `json:"userType"`
}

type wireResult struct {
	Token string   `json:"token"`
	User  wireUser `json:"user"`
}

func (s *DevServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "malformed request"})
		return
	}

	var acct Account
	err := s.db.WithContext(c.Request.Context()).
		First(&acct, "email = ?", strings.ToLower(strings.TrimSpace(req.Email))).Error
	if err != nil {
		// Same response as a wrong password: never reveal whether the
		// email is registered.
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, resultFor(&acct))
}

func (s *DevServer) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "malformed registration"})
		return
	}

	if field, msg := checkRegistration(&req, time.Now()); field != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": msg, "field": field})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "hashing failed"})
		return
	}

	dob, _ := time.Parse(dateLayout, req.DateOfBirth)
	acct := Account{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		DateOfBirth:  dob,
		Gender:       req.Gender,
		UserType:     req.UserType,
	}

	if err := s.db.WithContext(c.Request.Context()).Create(&acct).Error; err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, gin.H{"message": "email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "storage failed"})
		return
	}

	c.JSON(http.StatusCreated, resultFor(&acct))
}

// checkRegistration applies the authoritative server-side rules. It returns
// the offending field and a message, or ("", "") when the input is acceptable.
func checkRegistration(req *registerRequest, now time.Time) (string, string) {
	name := strings.TrimSpace(req.Name)
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return "name", "name must be 2 to 50 characters"
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return "email", "email must be a valid email address"
	}
	if n := utf8.RuneCountInString(req.Password); n < 8 || n > 100 {
		return "password", "password must be 8 to 100 characters"
	}
	dob, err := time.Parse(dateLayout, req.DateOfBirth)
	if err != nil {
		return "dateOfBirth", "dateOfBirth must be formatted as YYYY-MM-DD"
	}
	if dob.After(now) || dob.AddDate(18, 0, 0).After(now) {
		return "dateOfBirth", "you must be at least 18 years old"
	}
	switch req.Gender {
	case domain.GenderMale, domain.GenderFemale, domain.GenderOther:
	default:
		return "gender", "gender must be male, female, or other"
	}
	switch req.UserType {
	case domain.UserTypeFree, domain.UserTypePro:
	default:
		return "userType", "userType must be free or pro"
	}
	return "", ""
}

// resultFor builds the wire response with a fresh opaque token.
func resultFor(acct *Account) wireResult {
	return wireResult{
		Token: uuid.NewString(),
		User: wireUser{
			ID:       acct.ID,
			Name:     acct.Name,
			Email:    acct.Email,
			Gender:   acct.Gender,
			UserType: acct.UserType,
		},
	}
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error. Not all GORM dialectors translate driver-level errors to
// gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver), so the message is
// checked as a fallback.
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
