package validate_test

import (
	"errors"
	"testing"

	"github.com/shashiranjanraj/nexus/pkg/validate"
)

type signupInput struct {
	Username             string `json:"username"              validate:"required,between=3,30,alpha_dash"`
	Email                string `json:"email"                 validate:"required,email"`
	Password             string `json:"password"              validate:"required,password"`
	PasswordConfirmation string `json:"password_confirmation" validate:"confirmed"`
	Phone                string `json:"phone"                 validate:"nullable,phone"`
	Payment              string `json:"payment"               validate:"required,in=mpesa,card,bank_transfer"`
	Rating               int    `json:"rating"                validate:"required,between=1,5"`
}

func validSignup() signupInput {
	return signupInput{
		Username:             "wanjiru_k",
		Email:                "wanjiru@example.co.ke",
		Password:             "Secret123",
		PasswordConfirmation: "Secret123",
		Phone:                "+254 712 345 678",
		Payment:              "mpesa",
		Rating:               5,
	}
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(validSignup())
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(signupInput{})
	if !validate.HasErrors(errs) {
		t.Error("expected required errors")
	}
	for _, field := range []string{"username", "email", "password", "payment", "rating"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
	if _, ok := errs["phone"]; ok {
		t.Error("phone is nullable and must not be reported")
	}
}

func TestUsernameLength(t *testing.T) {
	in := validSignup()
	in.Username = "ab"
	if _, ok := validate.Struct(in)["username"]; !ok {
		t.Error("expected 2-char username to fail")
	}
	in.Username = "abcdefghijklmnopqrstuvwxyz12345"
	if _, ok := validate.Struct(in)["username"]; !ok {
		t.Error("expected 31-char username to fail")
	}
	in.Username = "has space"
	if _, ok := validate.Struct(in)["username"]; !ok {
		t.Error("expected alpha_dash to reject spaces")
	}
}

func TestPasswordStrength(t *testing.T) {
	cases := map[string]bool{
		"Secret123": true,
		"secret123": false,
		"SECRET123": false,
		"Secretabc": false,
		"Se1":       false,
	}
	for pw, want := range cases {
		if got := validate.Password(pw); got != want {
			t.Errorf("Password(%q) = %v, want %v", pw, got, want)
		}
	}
}

func TestPhoneRule(t *testing.T) {
	cases := map[string]bool{
		"+254712345678":    true,
		"0712345678":       true,
		"0112345678":       true,
		"+254 712 345 678": true,
		"0812345678":       false,
		"+25471234567":     false,
		"712345678":        false,
	}
	for phone, want := range cases {
		if got := validate.Phone(phone); got != want {
			t.Errorf("Phone(%q) = %v, want %v", phone, got, want)
		}
	}
}

func TestConfirmedRule(t *testing.T) {
	in := validSignup()
	in.PasswordConfirmation = "Other123"
	if _, ok := validate.Struct(in)["password_confirmation"]; !ok {
		t.Error("expected confirmation mismatch to fail")
	}
}

func TestInRule(t *testing.T) {
	in := validSignup()
	in.Payment = "paypal"
	if _, ok := validate.Struct(in)["payment"]; !ok {
		t.Error("expected unknown payment method to fail")
	}
}

func TestBetweenNumeric(t *testing.T) {
	in := validSignup()
	in.Rating = 6
	if _, ok := validate.Struct(in)["rating"]; !ok {
		t.Error("expected rating 6 to fail")
	}
}

func TestMinIsNotMultiValue(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"min=2,alpha_dash"`
	}
	if errs := validate.Struct(in{Name: "a b"}); errs["name"] == "" {
		t.Error("expected alpha_dash after min= to be applied")
	}
}

func TestCheckReturnsErrors(t *testing.T) {
	in := validSignup()
	in.Email = "nope"
	err := validate.Check(in)

	var verrs validate.Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validate.Errors, got %T", err)
	}
	if verrs.First() != "The email must be a valid email address." {
		t.Errorf("unexpected message %q", verrs.First())
	}
	if validate.Check(validSignup()) != nil {
		t.Error("expected nil for a valid struct")
	}
}
