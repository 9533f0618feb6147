package spacex

import "time"

// Optional upstream fields are pointers so that an absent value is dropped
// from the encoded record while false and 0 are kept.

type Launch struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	FlightNumber *int         `json:"flight_number,omitempty"`
	DateUTC      *time.Time   `json:"date_utc,omitempty"`
	DateLocal    *string      `json:"date_local,omitempty"`
	Upcoming     *bool        `json:"upcoming,omitempty"`
	Success      *bool        `json:"success,omitempty"`
	Details      *string      `json:"details,omitempty"`
	Crew         []string     `json:"crew,omitempty"`
	Ships        []string     `json:"ships,omitempty"`
	Capsules     []string     `json:"capsules,omitempty"`
	Payloads     []string     `json:"payloads,omitempty"`
	Launchpad    *string      `json:"launchpad,omitempty"`
	Rocket       *string      `json:"rocket,omitempty"`
	Links        *LaunchLinks `json:"links,omitempty"`
}

type LaunchLinks struct {
	Patch     *Patch  `json:"patch,omitempty"`
	Webcast   *string `json:"webcast,omitempty"`
	Article   *string `json:"article,omitempty"`
	Wikipedia *string `json:"wikipedia,omitempty"`
}

type Patch struct {
	Small *string `json:"small,omitempty"`
	Large *string `json:"large,omitempty"`
}

type Rocket struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           *string  `json:"type,omitempty"`
	Active         *bool    `json:"active,omitempty"`
	Stages         *int     `json:"stages,omitempty"`
	Boosters       *int     `json:"boosters,omitempty"`
	CostPerLaunch  *int64   `json:"cost_per_launch,omitempty"`
	SuccessRatePct *int     `json:"success_rate_pct,omitempty"`
	FirstFlight    *string  `json:"first_flight,omitempty"`
	Country        *string  `json:"country,omitempty"`
	Company        *string  `json:"company,omitempty"`
	Wikipedia      *string  `json:"wikipedia,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Height         *Length  `json:"height,omitempty"`
	Diameter       *Length  `json:"diameter,omitempty"`
	Mass           *Mass    `json:"mass,omitempty"`
	Engines        *Engines `json:"engines,omitempty"`
}

// Length is a physical dimension reported in both unit systems.
type Length struct {
	Meters *float64 `json:"meters,omitempty"`
	Feet   *float64 `json:"feet,omitempty"`
}

type Mass struct {
	Kg *float64 `json:"kg,omitempty"`
	Lb *float64 `json:"lb,omitempty"`
}

// Engines is a single object upstream, not a list.
type Engines struct {
	Type    *string `json:"type,omitempty"`
	Version *string `json:"version,omitempty"`
	Number  *int    `json:"number,omitempty"`
}

type Ship struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      *string  `json:"type,omitempty"`
	Active    *bool    `json:"active,omitempty"`
	HomePort  *string  `json:"home_port,omitempty"`
	Link      *string  `json:"link,omitempty"`
	Image     *string  `json:"image,omitempty"`
	Launches  []string `json:"launches,omitempty"`
	YearBuilt *int     `json:"year_built,omitempty"`
	MassKg    *float64 `json:"mass_kg,omitempty"`
	Class     *int     `json:"class,omitempty"`
	Model     *string  `json:"model,omitempty"`
}

type Launchpad struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	FullName        *string  `json:"full_name,omitempty"`
	Locality        *string  `json:"locality,omitempty"`
	Region          *string  `json:"region,omitempty"`
	Timezone        *string  `json:"timezone,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	LaunchAttempts  *int     `json:"launch_attempts,omitempty"`
	LaunchSuccesses *int     `json:"launch_successes,omitempty"`
	Status          *string  `json:"status,omitempty"`
	Details         *string  `json:"details,omitempty"`
}
