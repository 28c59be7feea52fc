package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	brckit "github.com/emptyOVO/brckit-go"
	"github.com/emptyOVO/brckit-go/agg"
	"github.com/emptyOVO/brckit-go/fixedpoint"
	"github.com/emptyOVO/brckit-go/record"
	log "github.com/sirupsen/logrus"
)

// ErrMismatch is returned by Validate when a partitioned run disagrees with
// the single-partition run.
var ErrMismatch = errors.New("partitioned result differs from single-partition result")

// Station is a synthetic station with its mean temperature in tenths.
type Station struct {
	Name string
	Mean int64
}

// DefaultStations seeds Generate when GenerateConfig.Stations is empty.
var DefaultStations = []Station{
	{"Abha", 180}, {"Accra", 264}, {"Addis Ababa", 160}, {"Adelaide", 173},
	{"Alexandria", 200}, {"Almaty", 100}, {"Amsterdam", 102}, {"Anchorage", 28},
	{"Athens", 192}, {"Auckland", 152}, {"Bangkok", 286}, {"Barcelona", 182},
	{"Beijing", 129}, {"Berlin", 103}, {"Bogotá", 156}, {"Bratislava", 105},
	{"Cairo", 214}, {"Cape Town", 162}, {"Chicago", 98}, {"Copenhagen", 91},
	{"Dakar", 240}, {"Dublin", 98}, {"Edinburgh", 93}, {"Hamburg", 97},
	{"Helsinki", 59}, {"Istanbul", 139}, {"İzmir", 179}, {"Jakarta", 267},
	{"Kyiv", 84}, {"Lagos", 268}, {"Lisbon", 175}, {"London", 113},
	{"Madrid", 150}, {"Montreal", 68}, {"Moscow", 58}, {"Mumbai", 271},
	{"Nairobi", 178}, {"Oslo", 57}, {"Paris", 123}, {"Reykjavík", 43},
	{"Rome", 152}, {"São Paulo", 199}, {"Seoul", 125}, {"Singapore", 270},
	{"Stockholm", 66}, {"Sydney", 177}, {"Tokyo", 154}, {"Vienna", 104},
	{"Warsaw", 85}, {"Yakutsk", -88}, {"Zürich", 93},
}

// GenerateConfig drives synthetic measurement generation.
type GenerateConfig struct {
	Rows     int64
	Seed     uint64
	Stations []Station
}

func (c *GenerateConfig) withDefaults() {
	if c.Rows <= 0 {
		c.Rows = 1_000_000
	}
	if len(c.Stations) == 0 {
		c.Stations = DefaultStations
	}
}

const maxTenths = 999

// Generate writes cfg.Rows measurement lines to w. The same seed always
// produces the same bytes.
func Generate(w io.Writer, cfg GenerateConfig) error {
	cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	bw := bufio.NewWriterSize(w, 1<<16)

	line := make([]byte, 0, 128)
	for i := int64(0); i < cfg.Rows; i++ {
		st := cfg.Stations[rng.IntN(len(cfg.Stations))]
		v := st.Mean + int64(rng.NormFloat64()*100)
		v = max(-maxTenths, min(maxTenths, v))

		line = append(line[:0], st.Name...)
		line = append(line, record.Separator)
		line = fixedpoint.AppendFormat(line, v)
		line = append(line, record.Terminator)
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Validate aggregates path once in a single partition and once with cfg,
// and returns ErrMismatch when the two reports differ.
func Validate(ctx context.Context, path string, cfg brckit.Config) error {
	single := cfg
	single.Workers = 1

	expected, err := DefaultRunner().Run(ctx, path, single)
	if err != nil {
		return fmt.Errorf("single-partition run: %w", err)
	}
	actual, err := DefaultRunner().Run(ctx, path, cfg)
	if err != nil {
		return fmt.Errorf("partitioned run: %w", err)
	}

	if !agg.Equal(expected, actual) {
		log.WithFields(log.Fields{
			"expected_stations": len(expected),
			"actual_stations":   len(actual),
		}).Error("[Pipeline] Validation mismatch")
		return fmt.Errorf("%w: %d vs %d stations", ErrMismatch, len(expected), len(actual))
	}
	log.WithField("stations", len(expected)).Info("[Pipeline] Validation passed")
	return nil
}
