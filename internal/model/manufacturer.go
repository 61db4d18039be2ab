// Package model holds the persisted record types of the fleet.
package model

// Manufacturer builds cars. Names are unique across the fleet.
type Manufacturer struct {
	ID      int    `db:"id,primaryKey"`
	Name    string `db:"name"`
	Country string `db:"country"`
	Cars    []Car  `db:"-" rel:"has_many,foreign_key:manufacturer_id"`
}

func (m Manufacturer) String() string { return m.Name }
