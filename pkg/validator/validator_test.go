package validator

import (
	"context"
	"strings"
	"testing"
)

type registrant struct {
	Name  string `validate:"required,min=3,max=255"`
	Email string `validate:"required,email"`
	Phone string `validate:"required,inphone"`
}

func valid() registrant {
	return registrant{Name: "Alice Kumar", Email: "alice@example.com", Phone: "9876543210"}
}

func TestValidRegistrantPasses(t *testing.T) {
	if err := Validate(context.Background(), valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIndianPhoneFormats(t *testing.T) {
	accepted := []string{
		"9876543210",
		"6000000000",
		"+919876543210",
		"+91-9876543210",
		"+91 98765 43210",
	}
	for _, phone := range accepted {
		r := valid()
		r.Phone = phone
		if err := Validate(context.Background(), r); err != nil {
			t.Errorf("phone %q rejected: %v", phone, err)
		}
	}

	rejected := []string{
		"12345",
		"5876543210",   // mobiles start at 6
		"98765432100",  // too long
		"987654321",    // too short
		"+929876543210",
		"abcdefghij",
		"",
	}
	for _, phone := range rejected {
		r := valid()
		r.Phone = phone
		if err := Validate(context.Background(), r); err == nil {
			t.Errorf("phone %q accepted", phone)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*registrant)
		want string
	}{
		{"missing name", func(r *registrant) { r.Name = "" }, ErrFieldRequired},
		{"short name", func(r *registrant) { r.Name = "Al" }, ErrFieldBelowMinLen},
		{"long name", func(r *registrant) { r.Name = strings.Repeat("a", 256) }, ErrFieldExceedsMaxLen},
		{"bad email", func(r *registrant) { r.Email = "not-an-email" }, ErrInvalidEmail},
		{"bad phone", func(r *registrant) { r.Phone = "12345" }, ErrInvalidPhone},
	}
	for _, tc := range cases {
		r := valid()
		tc.mut(&r)
		err := Validate(context.Background(), r)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !strings.HasPrefix(err.Error(), tc.want) {
			t.Errorf("%s: got %q, want prefix %q", tc.name, err.Error(), tc.want)
		}
	}
}
