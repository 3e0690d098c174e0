package registry

import (
	"time"

	"autotrack/internal/models"
)

// seedVehicles is the default dataset used when no persisted snapshot exists
// yet, mirroring the demo records the registry has always shipped with.
func seedVehicles(now time.Time) []models.Vehicle {
	return []models.Vehicle{
		{
			ID:          "1",
			Plate:       "KAB123X",
			VIN:         "VIN00123998",
			Type:        models.TypeCar,
			Model:       "Toyota Corolla",
			Year:        "2020",
			Color:       "White",
			Owner:       "John Doe",
			History:     "Minor scratch repaired in 2022. Regular service maintained.",
			LastUpdated: now.Add(-48 * time.Hour),
		},
		{
			ID:          "2",
			Plate:       "ZDA990W",
			VIN:         "VLV99822100",
			Type:        models.TypeTruck,
			Model:       "Volvo FH16",
			Year:        "2021",
			Color:       "Deep Blue",
			Owner:       "Global Logistics Ltd",
			History:     "Heavy duty usage. Engine overhaul performed at 150k miles.",
			LastUpdated: now.Add(-5 * time.Hour),
		},
	}
}
