package services

import (
	"strings"
	"testing"

	"finance-ledger/internal/config"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

type PasswordServiceTestSuite struct {
	suite.Suite
	service PasswordServiceInterface
}

func (s *PasswordServiceTestSuite) SetupTest() {
	s.service = NewPasswordService(config.SecurityConfig{
		BCryptCost:        bcrypt.MinCost,
		PasswordMinLength: 8,
	})
}

func TestPasswordServiceSuite(t *testing.T) {
	suite.Run(t, new(PasswordServiceTestSuite))
}

func (s *PasswordServiceTestSuite) TestValidatePassword() {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"meets minimum length", "abcdefgh", false},
		{"with spaces", "correct horse battery", false},
		{"empty", "", true},
		{"too short", "abc", true},
		{"too long", strings.Repeat("a", MaxPasswordLength+1), true},
		{"exactly max length", strings.Repeat("a", MaxPasswordLength), false},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := s.service.ValidatePassword(tt.password)
			if tt.wantErr {
				s.Error(err)
				s.True(IsPasswordPolicyError(err))
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *PasswordServiceTestSuite) TestValidatePassword_TooShortReportsMinimum() {
	err := s.service.ValidatePassword("abc")

	var tooShort *PasswordTooShortError
	s.Require().ErrorAs(err, &tooShort)
	s.Equal(8, tooShort.MinLength)
	s.Equal("password must be at least 8 characters", err.Error())
}

func (s *PasswordServiceTestSuite) TestNewPasswordService_Defaults() {
	svc := NewPasswordService(config.SecurityConfig{BCryptCost: 99, PasswordMinLength: -1}).(*PasswordService)

	s.Equal(bcrypt.DefaultCost, svc.cost)
	s.Equal(DefaultMinPasswordLength, svc.minLength)
}

func (s *PasswordServiceTestSuite) TestHashPassword() {
	hash, err := s.service.HashPassword("Groceries&Rent2024")
	s.Require().NoError(err)
	s.NotEqual("Groceries&Rent2024", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	s.NoError(err)
	s.Equal(bcrypt.MinCost, cost)

	again, err := s.service.HashPassword("Groceries&Rent2024")
	s.Require().NoError(err)
	s.NotEqual(hash, again, "salted hashes differ")

	longest, err := s.service.HashPassword(strings.Repeat("x", MaxPasswordLength))
	s.NoError(err)
	s.NotEmpty(longest)
}

func (s *PasswordServiceTestSuite) TestHashPassword_PolicyViolations() {
	for _, password := range []string{"", "short", strings.Repeat("x", MaxPasswordLength+1)} {
		hash, err := s.service.HashPassword(password)
		s.True(IsPasswordPolicyError(err), "%q", password)
		s.Empty(hash)
	}
}

func (s *PasswordServiceTestSuite) TestComparePassword() {
	hash, err := s.service.HashPassword("Groceries&Rent2024")
	s.Require().NoError(err)

	cases := []struct {
		password string
		hash     string
		want     bool
	}{
		{"Groceries&Rent2024", hash, true},
		{"groceries&rent2024", hash, false},
		{"Groceries&Rent2025", hash, false},
		{"", hash, false},
		{"Groceries&Rent2024", "not-a-bcrypt-hash", false},
		{"Groceries&Rent2024", "", false},
	}

	for _, tc := range cases {
		s.Equal(tc.want, s.service.ComparePassword(tc.password, tc.hash), "%q vs %q", tc.password, tc.hash)
	}
}
