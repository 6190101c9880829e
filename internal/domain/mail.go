package domain

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

// NotificationMailData 是站内通知的邮件投递载荷
type NotificationMailData struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
}
