package authflow

type msgKey int

const (
	msgGeneric msgKey = iota
	msgLoginFailed
	msgFillAll
	msgVerifyFirst
	msgPasswordMismatch
	msgSignupDone
	msgSignupFailed
	msgEmailRequired
	msgAlreadyRegistered
	msgOTPSent
	msgOTPSendFailed
	msgCodeRequired
	msgCodeFormat
	msgVerified
	msgVerifyFailed
	msgNotRegistered
	msgResetSent
	msgResetSendFailed
	msgRecoveryRequired
	msgNewPasswordRequired
	msgPasswordChanged
	msgPasswordChangeFailed
	msgSetNewPassword
	msgRecoveryLinkInvalid
	msgLoggedIn
)

var texts = map[msgKey][2]string{
	msgGeneric:              {"오류가 발생했습니다.", "An error occurred."},
	msgLoginFailed:          {"로그인 중 오류가 발생했습니다.", "An error occurred while signing in."},
	msgFillAll:              {"모든 필드를 입력해 주세요.", "Please fill in every field."},
	msgVerifyFirst:          {"이메일 인증을 완료해 주세요.", "Please verify your email first."},
	msgPasswordMismatch:     {"비밀번호와 비밀번호 확인이 일치하지 않습니다.", "Password and confirmation do not match."},
	msgSignupDone:           {"회원가입이 완료되었습니다!", "Sign-up complete!"},
	msgSignupFailed:         {"회원가입 중 오류가 발생했습니다.", "An error occurred during sign-up."},
	msgEmailRequired:        {"이메일을 입력해 주세요.", "Please enter your email."},
	msgAlreadyRegistered:    {"이미 가입된 이메일입니다. 로그인하거나 비밀번호 찾기를 이용해 주세요.", "This email is already registered. Sign in or reset your password."},
	msgOTPSent:              {"이메일로 8자리 인증번호를 보냈습니다. 받은 번호를 입력해 주세요.", "We sent an 8-digit code to your email. Enter it to continue."},
	msgOTPSendFailed:        {"인증 메일 전송 중 오류가 발생했습니다.", "An error occurred while sending the verification email."},
	msgCodeRequired:         {"이메일로 받은 인증번호를 입력해 주세요.", "Enter the code you received by email."},
	msgCodeFormat:           {"인증번호는 8자리 숫자여야 합니다.", "The code must be 8 digits."},
	msgVerified:             {"이메일 인증 완료! 비밀번호를 설정해 회원가입을 마무리해 주세요.", "Email verified! Set a password to finish signing up."},
	msgVerifyFailed:         {"인증 중 오류가 발생했습니다.", "An error occurred during verification."},
	msgNotRegistered:        {"가입되지 않은 이메일입니다.", "This email is not registered."},
	msgResetSent:            {"비밀번호 재설정 링크를 이메일로 전송했습니다. 메일을 확인해 주세요.", "We sent a password reset link to your email."},
	msgResetSendFailed:      {"메일 전송 중 오류가 발생했습니다.", "An error occurred while sending the email."},
	msgRecoveryRequired:     {"이메일 링크를 통해 들어온 후 새 비밀번호를 설정할 수 있습니다.", "Open the link from your email to set a new password."},
	msgNewPasswordRequired:  {"새 비밀번호를 입력해 주세요.", "Please enter a new password."},
	msgPasswordChanged:      {"비밀번호가 변경되었습니다. 새 비밀번호로 로그인하세요.", "Password changed. Sign in with your new password."},
	msgPasswordChangeFailed: {"비밀번호 변경 중 오류가 발생했습니다.", "An error occurred while changing the password."},
	msgSetNewPassword:       {"새 비밀번호를 설정해 주세요.", "Please set a new password."},
	msgRecoveryLinkInvalid:  {"재설정 링크가 유효하지 않습니다.", "The reset link is invalid or expired."},
	msgLoggedIn:             {"로그인되었습니다.", "Signed in."},
}

func text(lang string, k msgKey) string {
	t, ok := texts[k]
	if !ok {
		t = texts[msgGeneric]
	}
	if lang == "en" {
		return t[1]
	}
	return t[0]
}
