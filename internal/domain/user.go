package domain

// User is a registered account. Hash holds the bcrypt password hash and
// never leaves the store/auth layers.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Hash     string `json:"-"`
}
