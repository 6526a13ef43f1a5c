package model

// Platform roles relevant to the gas subsystem.
const (
	RoleUser   = "user"
	RoleVendor = "vendor"
)

// User is the slice of the platform identity record this subsystem reads to
// populate order snapshots and the vendor directory. Managed elsewhere.
type User struct {
	ID              string  `db:"id" json:"id"`
	FullName        string  `db:"full_name" json:"full_name"`
	BusinessName    *string `db:"business_name" json:"business_name"`
	Email           string  `db:"email" json:"email"`
	Phone           string  `db:"phone" json:"phone"`
	Address         string  `db:"address" json:"address"`
	BusinessAddress *string `db:"business_address" json:"business_address"`
	Role            string  `db:"role" json:"role"`
	IsGasVendor     bool    `db:"is_gas_vendor" json:"is_gas_vendor"`
	IsAdminApproved bool    `db:"is_admin_approved" json:"is_admin_approved"`
}

// DisplayName prefers the business name for vendors.
func (u *User) DisplayName() string {
	if u.BusinessName != nil && *u.BusinessName != "" {
		return *u.BusinessName
	}
	return u.FullName
}

// Item is the slice of the marketplace catalog this subsystem reads to price
// gas orders. Managed elsewhere.
type Item struct {
	ID         string `db:"id" json:"id"`
	OwnerID    string `db:"owner_id" json:"owner_id"`
	Title      string `db:"title" json:"title"`
	Category   string `db:"category" json:"category"`
	PriceCents int64  `db:"price_cents" json:"price_cents"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}
