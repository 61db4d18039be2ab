package model

// Car belongs to exactly one Manufacturer and may be assigned to any
// number of Drivers.
type Car struct {
	ID             int           `db:"id,primaryKey"`
	Model          string        `db:"model"`
	ManufacturerID int           `db:"manufacturer_id"`
	Manufacturer   *Manufacturer `db:"-" rel:"belongs_to,foreign_key:manufacturer_id"`
	Drivers        []Driver      `db:"-" rel:"many_to_many,join_table:car_drivers,foreign_key:car_id,references:driver_id"`
}

// DriverIDs returns the ids of the loaded Drivers.
func (c Car) DriverIDs() []int {
	ids := make([]int, len(c.Drivers))
	for i, d := range c.Drivers {
		ids[i] = d.ID
	}
	return ids
}

func (c Car) String() string {
	if c.Manufacturer != nil {
		return c.Model + " (" + c.Manufacturer.Name + ")"
	}
	return c.Model
}
