// README: Shared identifier, geo, and principal types.
package types

// ID is a UUID string used for orders, drivers, clients, and ledger entries.
type ID string

type Point struct {
	Lat float64
	Lng float64
}

// Address is a free-form address plus its resolved coordinates.
type Address struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type Role string

const (
	RoleClient Role = "client"
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

// Principal is the authenticated identity supplied by the auth collaborator.
// The core trusts it and only enforces role/ownership checks.
type Principal struct {
	UserID ID
	Role   Role
}
