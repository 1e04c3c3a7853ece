package model

// Language is a read model resolved for message composition.
type Language struct {
	ID     string
	Name   string
	Active bool
}

// Distance is the optional travel distance/time attached to a physical
// booking. It is maintained by its own update path, not by the lifecycle.
type Distance struct {
	JobID      string
	Distance   string
	TravelTime string
}
