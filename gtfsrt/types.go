package gtfsrt

// VehiclePosition is a flattened GTFS-RT VehiclePosition entity.
type VehiclePosition struct {
	EntityID     string  `json:"entity_id"`
	VehicleID    string  `json:"vehicle_id"`
	Label        string  `json:"label,omitempty"`
	LicensePlate string  `json:"license_plate,omitempty"`
	TripID       string  `json:"trip_id,omitempty"`
	RouteID      string  `json:"route_id,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	Bearing      float64 `json:"bearing,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
	Timestamp    int64   `json:"timestamp,omitempty"`
	RecordedAt   string  `json:"recorded_at,omitempty"`
}

// VehicleSnapshot is one decoded feed.
type VehicleSnapshot struct {
	HeaderTimestamp int64             `json:"header_timestamp"`
	GeneratedAt     string            `json:"generated_at,omitempty"`
	Vehicles        []VehiclePosition `json:"vehicles"`
}
