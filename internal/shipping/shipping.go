// Package shipping talks to the external rate collaborator. The core only
// consumes quoted costs; it never computes courier rates itself.
package shipping

import "context"

// Destination is one result from a domestic destination search.
type Destination struct {
	SubdistrictID   string `json:"subdistrict_id"`
	SubdistrictName string `json:"subdistrict_name"`
	CityID          string `json:"city_id"`
	CityName        string `json:"city_name"`
	ProvinceID      string `json:"province_id"`
	ProvinceName    string `json:"province_name"`
	ZipCode         string `json:"zip_code"`
}

// Rate is one quoted service for a courier.
type Rate struct {
	Courier     string `json:"courier"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	ETD         string `json:"etd"`
}

// Client quotes shipping rates and resolves destinations.
type Client interface {
	SearchDestinations(ctx context.Context, query string, limit int) ([]Destination, error)
	// CalculateCost quotes rates for shipping weightGrams from the shop's
	// origin to the destination subdistrict with the given courier.
	CalculateCost(ctx context.Context, destinationID string, weightGrams int, courier string) ([]Rate, error)
}
