package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/theoremus-urban-solutions/rapidbus-avl/utils"
)

// Client is a simple HTTP client for fetching GTFS-RT protobuf data.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new GTFS-RT HTTP client. A zero timeout means none.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch fetches a single GTFS-RT feed from a URL and returns raw protobuf bytes.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/x-protobuf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// FetchVehiclePositions fetches and decodes a VehiclePositions feed.
func (c *Client) FetchVehiclePositions(ctx context.Context, url string) (*VehicleSnapshot, error) {
	data, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("vehicle positions: %w", err)
	}
	return ParseVehiclePositions(data)
}

// ParseVehiclePositions decodes a FeedMessage and keeps every entity that
// carries a vehicle position.
func ParseVehiclePositions(data []byte) (*VehicleSnapshot, error) {
	var fm gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("decode feed message: %w", err)
	}

	snap := &VehicleSnapshot{Vehicles: make([]VehiclePosition, 0, len(fm.GetEntity()))}
	if ts := fm.GetHeader().GetTimestamp(); ts > 0 {
		snap.HeaderTimestamp = int64(ts)
		snap.GeneratedAt = utils.Iso8601FromUnixSeconds(int64(ts))
	}

	for _, e := range fm.GetEntity() {
		vp := e.GetVehicle()
		if vp == nil || vp.GetPosition() == nil {
			continue
		}
		pos := vp.GetPosition()
		v := VehiclePosition{
			EntityID:     e.GetId(),
			VehicleID:    vp.GetVehicle().GetId(),
			Label:        vp.GetVehicle().GetLabel(),
			LicensePlate: vp.GetVehicle().GetLicensePlate(),
			TripID:       vp.GetTrip().GetTripId(),
			RouteID:      vp.GetTrip().GetRouteId(),
			Lat:          float64(pos.GetLatitude()),
			Lon:          float64(pos.GetLongitude()),
			Bearing:      float64(pos.GetBearing()),
			Speed:        float64(pos.GetSpeed()),
			Timestamp:    int64(vp.GetTimestamp()),
		}
		v.RecordedAt = utils.Iso8601FromUnixSeconds(v.Timestamp)
		snap.Vehicles = append(snap.Vehicles, v)
	}
	return snap, nil
}
