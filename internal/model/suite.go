package model

// Area is one of the fixed terrace and bowl zones a suite belongs to.
type Area string

const (
	AreaEastTerrace Area = "EAST_TERRACE"
	AreaWestTerrace Area = "WEST_TERRACE"
	AreaLowerBowl   Area = "LOWER_BOWL"
	AreaUpperBowl   Area = "UPPER_BOWL"
)

// Valid reports whether a is a known zone.
func (a Area) Valid() bool {
	switch a {
	case AreaEastTerrace, AreaWestTerrace, AreaLowerBowl, AreaUpperBowl:
		return true
	}
	return false
}

// Suite is immutable reference data describing a physical season-ticket
// box.  Nobody owns a suite directly; ownership is expressed through an
// APPROVED SellerApplication.
type Suite struct {
	ID          uint64 `json:"id"`           // suites.id
	Area        Area   `json:"area"`         // suites.area
	Number      int    `json:"number"`       // suites.number
	DisplayName string `json:"display_name"` // suites.display_name
	Capacity    int    `json:"capacity"`     // suites.capacity (0 when unknown)
}
