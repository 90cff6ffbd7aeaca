package templates

// VerifyEmailData holds variables for the auth.verify_email scenario.
type VerifyEmailData struct {
	FirstName string
	Link      string
}

// VerifyEmail is the typed handle for the auth.verify_email template.
var VerifyEmail = Expect[VerifyEmailData]("auth.verify_email")

// TwoFactorOTPData holds variables for the auth.two_factor_otp scenario.
type TwoFactorOTPData struct {
	OTP string
}

// TwoFactorOTP is the typed handle for the auth.two_factor_otp template.
var TwoFactorOTP = Expect[TwoFactorOTPData]("auth.two_factor_otp")

// PasswordResetData holds variables for the auth.password_reset scenario.
type PasswordResetData struct {
	FirstName string
	Link      string
}

// PasswordReset is the typed handle for the auth.password_reset template.
var PasswordReset = Expect[PasswordResetData]("auth.password_reset")
