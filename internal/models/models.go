package models

// User owns zero or more cart items. Passwords are stored only as bcrypt
// hashes, never in clear text.
type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"uniqueIndex;not null"     json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"not null"                 json:"name"`
	Price       float64 `gorm:"not null"                 json:"price"`
	Description string  `json:"description"`
}

// CartItem is one unit of a product in a user's cart. There is deliberately
// no quantity column and no unique (user_id, product_id) index: adding the
// same product twice yields two rows.
type CartItem struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint `gorm:"index;not null"           json:"user_id"`
	ProductID uint `gorm:"not null"                 json:"product_id"`
}

// Session backs cookie logins. The raw token never hits the database, only
// its SHA-256 hex; revoking the row is what makes logout effective.
type Session struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenHash string `gorm:"uniqueIndex;not null"     json:"-"`
	JTI       string `gorm:"uniqueIndex;not null"     json:"jti"`
	UserID    uint   `gorm:"index;not null"           json:"user_id"`
	ExpiresAt int64  `gorm:"not null"                 json:"expires_at"`
	Revoked   bool   `gorm:"default:false"            json:"revoked"`
}

// CartLine is the read model for viewing a cart: a cart row joined with the
// product it references, so name and price always reflect the catalog's
// current state.
type CartLine struct {
	ID           uint    `json:"id"`
	UserID       uint    `json:"user_id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
}
