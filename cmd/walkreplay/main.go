// Command walkreplay replays a recorded GPS walk through a capture session
// and prints the area and quantity the field app would have saved.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gotrocks/proportal/internal/catalog"
)

var (
	trackPath   = flag.String("track", "", "Path to the track YAML (required)")
	catalogPath = flag.String("catalog", "seeds/portal.yaml", "Catalog YAML with materials and densities")
	material    = flag.String("material", "", "Material name to estimate for (default: first in catalog)")
	depth       = flag.Int("depth", 0, "Depth in inches (default: the material's default depth)")
	lang        = flag.String("lang", "en", "Language for the saved material name")
	interval    = flag.Duration("interval", 0, "Delay between readings (default: the track's intervalMs)")
	asJSON      = flag.Bool("json", false, "Print the saved record as JSON")
	timeout     = flag.Duration("timeout", time.Minute, "Give up after this long")
)

func main() {
	flag.Parse()
	if *trackPath == "" {
		fatalf("--track is required")
	}

	track, err := loadTrack(*trackPath)
	if err != nil {
		fatalf("track: %v", err)
	}
	cat, err := catalog.LoadFile(*catalogPath)
	if err != nil {
		fatalf("catalog: %v", err)
	}
	ms, ps := cat.Rows(catalog.Namespace)

	opts := replayOptions{
		Materials: catalog.CoreMaterials(ms),
		Densities: catalog.CoreDensities(ps),
		DepthIn:   *depth,
		Lang:      *lang,
		Interval:  *interval,
	}
	if *material != "" {
		opts.MaterialID = catalog.MaterialID(catalog.Namespace, *material)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := replay(ctx, track, opts)
	if err != nil {
		fatalf("replay: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res.Record)
		return
	}

	rec := res.Record
	fmt.Printf("Track:     %s (%d readings, %d vertices kept)\n", track.Name, res.Readings, res.Appended)
	fmt.Printf("Area:      %.1f ft² (%.2f m²)\n", rec.Area.SqFt, rec.Area.SqM)
	fmt.Printf("Material:  %s, match %s\n", rec.MaterialName, res.View.Match)
	fmt.Printf("Depth:     %d in\n", rec.DepthIn)
	fmt.Printf("Quantity:  %.2f yd³, %.2f t\n", rec.Calculated.CubicYards, rec.Calculated.Tons)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "walkreplay: "+format+"\n", args...)
	os.Exit(1)
}
