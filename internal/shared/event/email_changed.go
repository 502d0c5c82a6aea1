package event

const EmailChangedDestination string = "account_email_changed"

type EmailChangedMessage struct {
	UserID    int64  `json:"user_id"`
	OldEmail  string `json:"old_email"`
	NewEmail  string `json:"new_email"`
	ChangedAt int64  `json:"changed_at"`
}
