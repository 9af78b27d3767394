package form

import "strings"

// Login is the sign-in form. The password is only checked for presence.
type Login struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// Register is the sign-up form.
type Register struct {
	Name            string `form:"name" validate:"notblank,min=2,max=50"`
	Email           string `form:"email" validate:"required,email"`
	Phone           string `form:"phone" validate:"omitempty,phone"`
	Password        string `form:"password" validate:"required,password"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

// OTP is the one-time code verification form.
type OTP struct {
	Email string `form:"email" validate:"required,email"`
	Code  string `form:"code" validate:"otp"`
}

// ForgotPassword requests a reset link.
type ForgotPassword struct {
	Email string `form:"email" validate:"required,email"`
}

// Profile is the edit-profile form.
type Profile struct {
	Name  string `form:"name" validate:"notblank,min=2,max=50"`
	Email string `form:"email" validate:"required,email"`
	Phone string `form:"phone" validate:"omitempty,phone"`
}

// Address is a delivery address.
type Address struct {
	Street     string `form:"street" validate:"notblank"`
	City       string `form:"city" validate:"notblank"`
	State      string `form:"state"`
	PostalCode string `form:"postalCode" validate:"notblank"`
	Country    string `form:"country" validate:"notblank"`
}

// Checkout is the order placement form.
type Checkout struct {
	Address       Address `form:"address"`
	PaymentMethod string  `form:"paymentMethod" validate:"required,oneof=credit_card debit_card paypal cash_on_delivery"`
}

// Preferences holds the locally stored display settings. Empty fields are
// left unchanged.
type Preferences struct {
	Language string `form:"language" validate:"omitempty,alpha,len=2"`
	Theme    string `form:"theme" validate:"omitempty,oneof=light dark system"`
}

// Normalize trims surrounding whitespace and lower-cases the email.
func (f *Login) Normalize() {
	f.Email = normalizeEmail(f.Email)
}

// Normalize trims text fields and lower-cases the email.
func (f *Register) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
}

// Normalize lower-cases the email.
func (f *ForgotPassword) Normalize() {
	f.Email = normalizeEmail(f.Email)
}

// Normalize trims the code and lower-cases the email.
func (f *OTP) Normalize() {
	f.Email = normalizeEmail(f.Email)
	f.Code = strings.TrimSpace(f.Code)
}

// Normalize trims text fields and lower-cases the email.
func (f *Profile) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Normalize trims and lower-cases both settings.
func (f *Preferences) Normalize() {
	f.Language = strings.ToLower(strings.TrimSpace(f.Language))
	f.Theme = strings.ToLower(strings.TrimSpace(f.Theme))
}
