package auth

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pairview/pairview/internal/domain"
)

// dateLayout is the accepted dateOfBirth input format.
const dateLayout = "2006-01-02"

// minAge is the minimum age at submission time for registration.
const minAge = 18

// RegisterInput carries the raw registration form fields. All values are
// strings as submitted; the validator owns parsing so field attribution stays
// deterministic.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth string
	Gender      string
	UserType    string
}

// ValidateLogin checks login credentials client-side: email must be present
// and well-formed, password must be present. No password length constraint is
// applied at login; the identity service is authoritative there.
//
// Pure and deterministic given its input; on failure the returned error is a
// *domain.AppError naming the offending field.
func ValidateLogin(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return domain.NewFieldError("password", "password is required")
	}
	return nil
}

// ValidateRegister checks registration input client-side. Submissions that
// fail here must never reach the identity service.
//
// When several fields are invalid, the first violation in the fixed order
// name, email, password, dateOfBirth, gender, userType is reported. On
// success the parsed date of birth is returned. Pure and deterministic given
// the input and now.
func ValidateRegister(in RegisterInput, now time.Time) (time.Time, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return time.Time{}, domain.NewFieldError("name", "name is required")
	}
	if n := utf8.RuneCountInString(name); n < 2 || n > 50 {
		return time.Time{}, domain.NewFieldError("name", "name must be 2 to 50 characters")
	}

	if err := validateEmail(in.Email); err != nil {
		return time.Time{}, err
	}

	if n := utf8.RuneCountInString(in.Password); n < 8 || n > 100 {
		return time.Time{}, domain.NewFieldError("password", "password must be 8 to 100 characters")
	}

	dobStr := strings.TrimSpace(in.DateOfBirth)
	if dobStr == "" {
		return time.Time{}, domain.NewFieldError("dateOfBirth", "date of birth is required")
	}
	dob, err := time.Parse(dateLayout, dobStr)
	if err != nil {
		return time.Time{}, domain.NewFieldError("dateOfBirth", "date of birth must be formatted as YYYY-MM-DD")
	}
	if dob.After(now) {
		return time.Time{}, domain.NewFieldError("dateOfBirth", "date of birth cannot be in the future")
	}
	if dob.AddDate(minAge, 0, 0).After(now) {
		return time.Time{}, domain.NewFieldError("dateOfBirth", "you must be at least 18 years old")
	}

	switch in.Gender {
	case domain.GenderMale, domain.GenderFemale, domain.GenderOther:
	default:
		return time.Time{}, domain.NewFieldError("gender", "gender must be male, female, or other")
	}

	switch in.UserType {
	case domain.UserTypeFree, domain.UserTypePro:
	default:
		return time.Time{}, domain.NewFieldError("userType", "account type must be free or pro")
	}

	return dob, nil
}

// validateEmail requires a non-empty, well-formed bare address
// ("user@host", no display name).
func validateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return domain.NewFieldError("email", "email is required")
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Name != "" || addr.Address != trimmed {
		return domain.NewFieldError("email", "email must be a valid email address")
	}
	return nil
}
