package rapidbusavl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/theoremus-urban-solutions/rapidbus-avl/config"
	"github.com/theoremus-urban-solutions/rapidbus-avl/gtfsrt"
)

// ErrNoVehiclePositionsURL is returned when one-shot mode has no feed URL.
var ErrNoVehiclePositionsURL = errors.New("gtfsrt.vehiclePositionsURL is not configured")

// RunOneShot fetches the GTFS-RT vehicle positions feed once and writes
// it to w as indented JSON.
func RunOneShot(ctx context.Context, cfg config.AppConfig, w io.Writer) error {
	if cfg.GTFSRT.VehiclePositionsURL == "" {
		return ErrNoVehiclePositionsURL
	}
	client := gtfsrt.NewClient(cfg.GTFSRTTimeout())
	snap, err := client.FetchVehiclePositions(ctx, cfg.GTFSRT.VehiclePositionsURL)
	if err != nil {
		return err
	}
	buf, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode vehicle positions: %w", err)
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}
