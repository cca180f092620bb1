package mail

import "fmt"

// RecoveryCodeMessage is the email carrying a 2FA recovery code.
func RecoveryCodeMessage(appName, to, code string, validMinutes int) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s two-factor recovery code", appName),
		Body: fmt.Sprintf(
			"Your %s recovery code is: %s\n\n"+
				"It expires in %d minutes. Entering it will remove the authenticator "+
				"from your account so you can sign in and enroll a new one.\n\n"+
				"If you did not request this, you can ignore this email.\n",
			appName, code, validMinutes),
	}
}

// PasswordResetMessage is the email carrying a password-reset code.
func PasswordResetMessage(appName, to, code string, validMinutes int) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s password reset code", appName),
		Body: fmt.Sprintf(
			"Your %s password reset code is: %s\n\n"+
				"It expires in %d minutes.\n\n"+
				"If you did not request this, you can ignore this email and your "+
				"password will stay unchanged.\n",
			appName, code, validMinutes),
	}
}

// TestMessage is sent by the admin "test sender" action to confirm a mailbox
// is wired up correctly.
func TestMessage(appName, to string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("%s sender test", appName),
		Body:    fmt.Sprintf("This is a test message from %s. The sender is configured correctly.\n", appName),
	}
}
