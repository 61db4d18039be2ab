package model

import "strings"

// Driver is a member of staff and the principal that signs in.
type Driver struct {
	ID            int    `db:"id,primaryKey"`
	Username      string `db:"username"`
	PasswordHash  string `db:"password_hash"`
	FirstName     string `db:"first_name"`
	LastName      string `db:"last_name"`
	LicenseNumber string `db:"license_number"`
	Cars          []Car  `db:"-" rel:"many_to_many,join_table:car_drivers,foreign_key:driver_id,references:car_id"`
}

// FullName joins first and last name, falling back to the username.
func (d Driver) FullName() string {
	if name := strings.TrimSpace(d.FirstName + " " + d.LastName); name != "" {
		return name
	}
	return d.Username
}

func (d Driver) String() string {
	if name := strings.TrimSpace(d.FirstName + " " + d.LastName); name != "" {
		return d.Username + " (" + name + ")"
	}
	return d.Username
}
