package models

// RoleAdmin is the global role that may manage every shop.
const RoleAdmin = "admin"

// AccessVia records which rule granted a caller access to a shop.
type AccessVia string

const (
	AccessViaOwner AccessVia = "owner"
	AccessViaStaff AccessVia = "staff"
	AccessViaAdmin AccessVia = "admin"
)

// ShopAccess is the outcome of a successful authorization check.
type ShopAccess struct {
	ShopID string
	UserID string
	Via    AccessVia
}
