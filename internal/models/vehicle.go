package models

import "time"

type VehicleType string

const (
	TypeCar        VehicleType = "Car"
	TypeTruck      VehicleType = "Truck"
	TypeBus        VehicleType = "Bus"
	TypeMotorcycle VehicleType = "Motorcycle"
)

// ValidVehicleType reports whether t is one of the registry's vehicle classes.
func ValidVehicleType(t VehicleType) bool {
	switch t {
	case TypeCar, TypeTruck, TypeBus, TypeMotorcycle:
		return true
	}
	return false
}

// Vehicle is a single registry record. ID and LastUpdated are owned by the
// store: values supplied by callers are ignored on create and update.
type Vehicle struct {
	ID      string      `json:"id"`
	Plate   string      `json:"plate"`
	VIN     string      `json:"vin"`
	Type    VehicleType `json:"type"`
	Model   string      `json:"model"`
	Year    string      `json:"year"`
	Color   string      `json:"color"`
	Owner   string      `json:"owner"`
	History string      `json:"history"`
	// Image is a base64-encoded photo, capped at creation time.
	Image       string    `json:"image,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}
