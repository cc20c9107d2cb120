// Package cropfile persists a chosen crop rectangle next to the coverage map
// it came from, so a resumed run can reuse it without solving again.
//
// The sidecar for "coverage.tif" is "coverage.tif.crop.yaml":
//
//	id: 9d4c0b8e-...
//	source: coverage.tif
//	width: 4000
//	height: 3000
//	preview: {x0: 12, y0: 9, x1: 3990, y1: 2985}
//	box: {left: 12, right: 3989, top: 9, bottom: 2984}
//	margins: {left: 12, top: 9, right: 10, bottom: 15}
//	manual: false
//
// The preview rectangle is authoritative; box and margins are written for
// reading and are recomputed from it on load. Set manual to true after
// editing the rectangle by hand.
package cropfile

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/stack-autocrop/internal/autocrop"
)

// Suffix is appended to the coverage map path to name its sidecar.
const Suffix = ".crop.yaml"

// PathFor returns the sidecar path for a coverage map.
func PathFor(coverage string) string { return coverage + Suffix }

// Rect is a rectangle as x0,y0 (inclusive) to x1,y1 (exclusive).
type Rect struct {
	X0 int `yaml:"x0" json:"x0"`
	Y0 int `yaml:"y0" json:"y0"`
	X1 int `yaml:"x1" json:"x1"`
	Y1 int `yaml:"y1" json:"y1"`
}

// RectFromBox converts an inclusive box.
func RectFromBox(b autocrop.Box) Rect {
	return Rect{X0: b.Left, Y0: b.Top, X1: b.Right + 1, Y1: b.Bottom + 1}
}

// Box converts back to an inclusive box.
func (r Rect) Box() autocrop.Box {
	return autocrop.Box{Left: r.X0, Right: r.X1 - 1, Top: r.Y0, Bottom: r.Y1 - 1}
}

// Image returns the rectangle as an image.Rectangle.
func (r Rect) Image() image.Rectangle { return image.Rect(r.X0, r.Y0, r.X1, r.Y1) }

// Record is one persisted crop rectangle.
type Record struct {
	ID      string           `yaml:"id"`
	Source  string           `yaml:"source"`
	Width   int              `yaml:"width"`
	Height  int              `yaml:"height"`
	Preview Rect             `yaml:"preview"`
	Box     autocrop.Box     `yaml:"box"`
	Margins autocrop.Margins `yaml:"margins"`
	Manual  bool             `yaml:"manual"`
	Created time.Time        `yaml:"created"`
}

// NewRecord describes box in a width x height coverage map read from source.
func NewRecord(source string, box autocrop.Box, width, height int) *Record {
	return &Record{
		ID:      uuid.New().String(),
		Source:  filepath.Base(source),
		Width:   width,
		Height:  height,
		Preview: RectFromBox(box),
		Box:     box,
		Margins: autocrop.MarginsFor(box, width, height),
		Created: time.Now().UTC().Truncate(time.Second),
	}
}

// Resolve checks the record against the dimensions of the coverage map it
// is about to be applied to and returns the box and margins it describes.
// The record's Box and Margins are refreshed from the preview rectangle.
func (r *Record) Resolve(width, height int) (autocrop.Box, autocrop.Margins, error) {
	if r.Width != 0 && r.Height != 0 && (r.Width != width || r.Height != height) {
		return autocrop.Box{}, autocrop.Margins{}, errors.Errorf(
			"crop record %s was made for a %dx%d image, got %dx%d", r.ID, r.Width, r.Height, width, height)
	}

	box := r.Preview.Box()
	if box.Empty() || !box.InImage(width, height) {
		return autocrop.Box{}, autocrop.Margins{}, errors.Errorf(
			"crop record %s: rectangle (%d,%d)-(%d,%d) does not fit a %dx%d image",
			r.ID, r.Preview.X0, r.Preview.Y0, r.Preview.X1, r.Preview.Y1, width, height)
	}

	r.Width, r.Height = width, height
	r.Box = box
	r.Margins = autocrop.MarginsFor(box, width, height)
	return box, r.Margins, nil
}

// Save writes the record as YAML, replacing any existing file.
func Save(path string, r *Record) error {
	if r == nil {
		return errors.New("crop record is nil")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "encode crop record")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write crop record %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "write crop record %s", path)
	}
	return nil
}

// Load reads a record. A missing file yields an error satisfying
// errors.Is(err, os.ErrNotExist).
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read crop record %s", path)
	}

	var r Record
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, "parse crop record %s", path)
	}
	if r.Preview == (Rect{}) {
		return nil, errors.Errorf("crop record %s has no preview rectangle", path)
	}
	return &r, nil
}

// LoadFor reads the sidecar of a coverage map and resolves it against the
// map's dimensions.
func LoadFor(coverage string, width, height int) (*Record, error) {
	r, err := Load(PathFor(coverage))
	if err != nil {
		return nil, err
	}
	if _, _, err := r.Resolve(width, height); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) String() string {
	kind := "solved"
	if r.Manual {
		kind = "manual"
	}
	return fmt.Sprintf("%s crop %s of %dx%d (%s)", kind, r.Box, r.Width, r.Height, r.Margins)
}
