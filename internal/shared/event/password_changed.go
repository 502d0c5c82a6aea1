package event

const PasswordChangedDestination string = "account_password_changed"

type PasswordChangedMessage struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	ChangedAt int64  `json:"changed_at"`
}
