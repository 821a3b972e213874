package worker

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/pflag"
)

// BatchSize is the number of increments performed between iteration checks.
const BatchSize = 10_000_000

// ProgressEvery is the number of completed batches between progress lines.
const ProgressEvery = 3

var ErrUnknownVariant = errors.New("unknown worker variant")

// Variant fixes the text a worker prints on startup and on progress.
type Variant struct {
	ID       string
	Startup  string
	Progress string
}

const DefaultVariant = "gcp"

var variants = map[string]Variant{
	"gcp": {
		ID:       "gcp",
		Startup:  "Starting on GCP!",
		Progress: "Running on GCP",
	},
	"cloud": {
		ID:       "cloud",
		Startup:  "Initializing on Cloud!",
		Progress: "Executing on Cloud",
	},
	"datacenter": {
		ID:       "datacenter",
		Startup:  "Launching in Data Center!",
		Progress: "Processing in Data Center",
	},
}

// Lookup returns the registered variant with the given id.
func Lookup(id string) (Variant, error) {
	v, ok := variants[id]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, id)
	}
	return v, nil
}

// Variants returns every registered variant sorted by id.
func Variants() []Variant {
	out := make([]Variant, 0, len(variants))
	for _, v := range variants {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Invocation is the set of arguments handed to a single worker.
// Delay is carried along but never used to pause the loop.
type Invocation struct {
	Name    string
	Delay   float64
	Variant string
}

func (inv Invocation) Validate() error {
	if inv.Name == "" {
		return errors.New("worker name is required")
	}
	if _, err := Lookup(inv.Variant); err != nil {
		return err
	}
	return nil
}

// Args renders the invocation as the flags understood by BindFlags.
func (inv Invocation) Args() []string {
	variant := inv.Variant
	if variant == "" {
		variant = DefaultVariant
	}
	return []string{
		"--name", inv.Name,
		"--delay", strconv.FormatFloat(inv.Delay, 'g', -1, 64),
		"--variant", variant,
	}
}

// BindFlags registers the invocation flags on fs, writing into inv.
func BindFlags(fs *pflag.FlagSet, inv *Invocation) {
	fs.StringVar(&inv.Name, "name", "", "Display name printed in every status line")
	fs.Float64Var(&inv.Delay, "delay", 0, "Delay value (accepted, not used to pause)")
	fs.StringVar(&inv.Variant, "variant", DefaultVariant, "Message variant (gcp, cloud, datacenter)")
}

// Stats holds the per-worker counters. Both only ever grow.
type Stats struct {
	Counter    uint64
	Iterations uint64
}
