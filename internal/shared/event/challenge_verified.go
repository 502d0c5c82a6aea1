package event

const ChallengeVerifiedDestination string = "account_challenge_verified"

type ChallengeVerifiedMessage struct {
	UserID     int64  `json:"user_id"`
	Email      string `json:"email"`
	Purpose    string `json:"purpose"`
	VerifiedAt int64  `json:"verified_at"`
}
