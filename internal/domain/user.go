package domain

// User is a registered account. PasswordHash and Salt are hex encoded.
type User struct {
	Meta
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Salt         string `json:"salt"`
}

// PublicUser is the view of a User that is safe to hand to callers.
type PublicUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Public strips the credential fields.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email}
}
