package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/fyp/core"
)

// Roles
const (
	RoleStudent     = "student"
	RoleCoordinator = "coordinator"
	RoleSupervisor  = "supervisor"
	RoleBoard       = "board"    // evaluation panel member
	RoleExternal    = "external" // external examiner
)

var (
	AllRoles   = []string{RoleStudent, RoleCoordinator, RoleSupervisor, RoleBoard, RoleExternal}
	StaffRoles = []string{RoleCoordinator, RoleSupervisor, RoleBoard, RoleExternal}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "FYP Coordinator", Value: RoleCoordinator},
		{Name: "Supervisor", Value: RoleSupervisor},
		{Name: "Evaluation Board", Value: RoleBoard},
		{Name: "External Examiner", Value: RoleExternal},
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	EnrollmentNo string    `json:"enrollment_no,omitempty"` // students only
	Department   string    `json:"department,omitempty"`
	FacultyID    string    `json:"faculty_id,omitempty"` // staff only
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasRole reports whether the user holds one of the given roles.
func (u *User) HasRole(roles ...string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u *User) IsStudent() bool     { return u.Role == RoleStudent }
func (u *User) IsCoordinator() bool { return u.Role == RoleCoordinator }
func (u *User) IsSupervisor() bool  { return u.Role == RoleSupervisor }
func (u *User) IsBoard() bool       { return u.Role == RoleBoard }
func (u *User) IsExternal() bool    { return u.Role == RoleExternal }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" yaml:"name" validate:"required"`
	Email           string `json:"email" yaml:"email" validate:"required,email"`
	Role            string `json:"role" yaml:"role" validate:"required,role"`
	EnrollmentNo    string `json:"enrollment_no" yaml:"enrollment_no" validate:"required_if=Role student,max=50"`
	Department      string `json:"department" yaml:"department"`
	FacultyID       string `json:"faculty_id" yaml:"faculty_id"`
	Password        string `json:"password" yaml:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" yaml:"-" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.EnrollmentNo = core.CleanString(nu.EnrollmentNo)
	nu.Department = core.CleanString(nu.Department)
	nu.FacultyID = core.CleanString(nu.FacultyID)
	if nu.Role != RoleStudent {
		nu.EnrollmentNo = ""
	}
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(nu.Email)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i, r := range qf.Roles {
		qf.Roles[i] = core.CleanString(r, true /* lower */)
	}
}

// Match reports whether usr satisfies all the set fields of the filter.
// Search does a case-insensitive match on one of User.Name, User.Email or User.EnrollmentNo.
func (qf *QueryFilter) Match(usr User) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(usr.Name), s) ||
			strings.Contains(usr.Email, s) ||
			strings.Contains(strings.ToLower(usr.EnrollmentNo), s)) {
			return false
		}
	}
	if len(qf.Roles) > 0 && !usr.HasRole(qf.Roles...) {
		return false
	}
	if qf.IsActive != nil && usr.IsActive != *qf.IsActive {
		return false
	}
	if !qf.CreatedFrom.IsZero() && usr.CreatedAt.Before(qf.CreatedFrom) {
		return false
	}
	if !qf.CreatedTo.IsZero() && usr.CreatedAt.After(qf.CreatedTo) {
		return false
	}
	return true
}
