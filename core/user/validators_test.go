package user

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fyp/core"
)

func TestCheckPasswordPolicyTag(t *testing.T) {
	commonPasswords = []string{"p@ssw0rd", "passw0rd!"}

	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abcd 1234!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcd12345", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcd1234!", want: pwdComplexityTag},
		{name: "similar to email", pwd: "Jdoe@uni.edu1", attrs: []string{"jdoe@uni.edu"}, want: pwdAttrSimTag},
		{name: "common", pwd: "P@ssw0rd", want: pwdNoCommonTag},
		{name: "valid", pwd: "Tr0ub4dor&3x", attrs: []string{"John Doe", "jdoe@uni.edu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPasswordPolicyTag(tt.pwd, tt.attrs...))
		})
	}
}

func TestNewUserValidation(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	valid := NewUser{
		Name:            "Jane Student",
		Email:           "jane@uni.edu",
		Role:            RoleStudent,
		EnrollmentNo:    "FA20-BSE-001",
		Password:        "Tr0ub4dor&3x",
		PasswordConfirm: "Tr0ub4dor&3x",
	}

	t.Run("valid", func(t *testing.T) {
		nu := valid
		require.NoError(t, validate.Struct(nu))
	})

	t.Run("unknown role", func(t *testing.T) {
		nu := valid
		nu.Role = "admin"
		err := validate.Struct(nu)
		require.Error(t, err)
		fe := err.(validator.ValidationErrors)[0]
		assert.Equal(t, "role", fe.Field())
		assert.Equal(t, roleText, fe.Translate(translator))
	})

	t.Run("student without enrollment number", func(t *testing.T) {
		nu := valid
		nu.EnrollmentNo = ""
		err := validate.Struct(nu)
		require.Error(t, err)
		assert.Equal(t, "enrollment_no", err.(validator.ValidationErrors)[0].Field())
	})

	t.Run("staff without enrollment number", func(t *testing.T) {
		nu := valid
		nu.Role = RoleSupervisor
		nu.EnrollmentNo = ""
		require.NoError(t, validate.Struct(nu))
	})

	t.Run("weak password", func(t *testing.T) {
		nu := valid
		nu.Password, nu.PasswordConfirm = "weakpass", "weakpass"
		err := validate.Struct(nu)
		require.Error(t, err)
		fe := err.(validator.ValidationErrors)[0]
		assert.Equal(t, "password", fe.Field())
		assert.Equal(t, pwdComplexityText, fe.Translate(translator))
	})
}
