package service

import (
	"fmt"
	"time"
)

func verificationCodeTemplate(username, code, expiry, appName string) (string, string) {
	subject := fmt.Sprintf("Your %s verification code", appName)
	body := fmt.Sprintf(`Hi %s,

Welcome to %s! Enter this code to verify your email address:

    %s

The code expires in %s. If it runs out, you can request a new one from the sign in page.

If you didn't create an account, you can ignore this email.

Best,
The %s Team`, username, appName, code, expiry, appName)

	return subject, body
}

func emailChangeCodeTemplate(username, code, expiry, appName string) (string, string) {
	subject := fmt.Sprintf("Confirm your new email for %s", appName)
	body := fmt.Sprintf(`Hi %s,

You asked to use this address for your %s account. Enter this code in your profile to confirm:

    %s

The code expires in %s.

If you didn't request this change, you can ignore this email. Your account keeps its current address.

Best,
The %s Team`, username, appName, code, expiry, appName)

	return subject, body
}

func passwordResetTemplate(username, resetURL, expiry, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password for %s", appName)
	body := fmt.Sprintf(`Hi %s,

We received a request to reset your password. Choose a new one here:
%s

This link expires in %s and can only be used once.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, username, resetURL, expiry, appName)

	return subject, body
}

// humanDuration formats whole hours or minutes: "1 hour", "10 minutes".
func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return plural(int(d/time.Hour), "hour")
	}
	minutes := int(d / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
