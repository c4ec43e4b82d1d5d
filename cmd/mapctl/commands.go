package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/navoditbharat/mapsketch/internal/adapters/storage"
	"github.com/navoditbharat/mapsketch/internal/core/domain"
	"github.com/navoditbharat/mapsketch/internal/core/usecases"
	"github.com/navoditbharat/mapsketch/internal/pkg/config"
	"github.com/navoditbharat/mapsketch/internal/pkg/geojson"
	"github.com/navoditbharat/mapsketch/internal/pkg/geospatial"
)

var errNoSavedState = errors.New("no saved map state")

// withPersistence opens the configured store for the duration of fn.
func withPersistence(fn func(ctx context.Context, p *usecases.PersistenceService) error) error {
	cfg, err := config.Load("mapctl")
	if err != nil {
		return err
	}

	ctx := context.Background()
	h, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	return fn(ctx, usecases.NewPersistenceService(h.Store, cfg.Storage.Key))
}

// AreaCommand prints the geodesic area of the polygon in a GeoJSON file.
type AreaCommand struct {
	Args struct {
		File string `positional-arg-name:"file" required:"true"`
	} `positional-args:"yes"`

	out io.Writer
}

func (c *AreaCommand) Execute(_ []string) error {
	data, err := os.ReadFile(c.Args.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Args.File, err)
	}
	return printArea(c.out, data)
}

func printArea(w io.Writer, data []byte) error {
	res, err := geojson.Decode(data)
	if err != nil {
		return err
	}
	for _, warn := range res.Warnings {
		slog.Warn("skipped feature", "index", warn.Index, "kind", warn.Kind)
	}

	area, ok := geospatial.Area(res.Polygon)
	if !ok {
		_, err := fmt.Fprintln(w, "no polygon with an area")
		return err
	}
	_, err = fmt.Fprintf(w, "Area: %s\n", domain.FormatArea(area))
	return err
}

// ShowCommand prints the saved state summary.
type ShowCommand struct {
	out io.Writer
}

func (c *ShowCommand) Execute(_ []string) error {
	return withPersistence(func(ctx context.Context, p *usecases.PersistenceService) error {
		return show(ctx, c.out, p)
	})
}

func show(ctx context.Context, w io.Writer, p *usecases.PersistenceService) error {
	state, ok := p.Load(ctx)
	if !ok {
		return errNoSavedState
	}

	view := usecases.BuildView(state, false)
	fmt.Fprintf(w, "Markers (%d)\n", len(view.Summary.Markers))
	for _, line := range view.Summary.Markers {
		fmt.Fprintf(w, "  %s\n", line)
	}
	if view.Polygon != nil {
		fmt.Fprintf(w, "Polygon: %d vertices\n", len(view.Polygon.Coordinates))
	}
	if view.Summary.Area != "" {
		fmt.Fprintf(w, "Area: %s\n", view.Summary.Area)
	}
	return nil
}

// ExportCommand writes the saved state as GeoJSON.
type ExportCommand struct {
	Output string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`

	out io.Writer
}

func (c *ExportCommand) Execute(_ []string) error {
	return withPersistence(func(ctx context.Context, p *usecases.PersistenceService) error {
		w := c.out
		if c.Output != "" {
			f, err := os.Create(c.Output)
			if err != nil {
				return fmt.Errorf("create %s: %w", c.Output, err)
			}
			defer f.Close()
			w = f
		}
		return export(ctx, w, p)
	})
}

func export(ctx context.Context, w io.Writer, p *usecases.PersistenceService) error {
	state, ok := p.Load(ctx)
	if !ok {
		return errNoSavedState
	}

	data, err := geojson.Encode(state.Markers, state.Polygon)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ImportCommand replaces the saved slot with the contents of a GeoJSON file.
type ImportCommand struct {
	Args struct {
		File string `positional-arg-name:"file" required:"true"`
	} `positional-args:"yes"`

	out io.Writer
}

func (c *ImportCommand) Execute(_ []string) error {
	data, err := os.ReadFile(c.Args.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Args.File, err)
	}
	return withPersistence(func(ctx context.Context, p *usecases.PersistenceService) error {
		return importFile(ctx, c.out, p, data)
	})
}

func importFile(ctx context.Context, w io.Writer, p *usecases.PersistenceService, data []byte) error {
	res, err := geojson.Decode(data)
	if err != nil {
		return err
	}
	if err := p.Save(ctx, res.State()); err != nil {
		return err
	}

	fmt.Fprintf(w, "imported %d markers", len(res.Markers))
	if res.Polygon != nil {
		fmt.Fprintf(w, " and a polygon of %d vertices", len(res.Polygon.Coordinates))
	}
	fmt.Fprintln(w)
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "skipped: %s\n", warn)
	}
	return nil
}

// DiscardCommand deletes the saved slot.
type DiscardCommand struct {
	out io.Writer
}

func (c *DiscardCommand) Execute(_ []string) error {
	return withPersistence(func(ctx context.Context, p *usecases.PersistenceService) error {
		if err := p.Discard(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "discarded %q\n", p.Key())
		return nil
	})
}
