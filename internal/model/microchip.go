// Package model holds the domain records shared by the repository,
// service and handler layers.
package model

import "fmt"

// Microchip is a single record of the collection.
//
// The JSON keys are part of the stored document format and the HTTP
// contract, so they must not change.
type Microchip struct {
	ID        int64   `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	FrameType string  `json:"frameType" yaml:"frameType"`
	Price     int     `json:"price" yaml:"price"`
	Voltage   float64 `json:"voltage" yaml:"voltage"`
}

func (m Microchip) String() string {
	return fmt.Sprintf("Microchip{id=%d, name=%q, frameType=%q, price=%d, voltage=%g}",
		m.ID, m.Name, m.FrameType, m.Price, m.Voltage)
}

// IDs returns the ids of the given records in order.
func IDs(chips []Microchip) []int64 {
	ids := make([]int64, 0, len(chips))
	for _, chip := range chips {
		ids = append(ids, chip.ID)
	}
	return ids
}
