// Package robot is the evolvable schema of a multi-fingered hand: a base
// link with a parallel set of fingers, each a chain of link segments.
package robot

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"

	"evodex/internal/gene"
)

var (
	ErrInvalidRobot = errors.New("invalid robot")
	ErrUnknownGene  = errors.New("unknown gene")
)

var validate = validator.New()

type GeometryType string

const (
	Box      GeometryType = "box"
	Sphere   GeometryType = "sphere"
	Cylinder GeometryType = "cylinder"
	Capsule  GeometryType = "capsule"
)

// geometryGenes lists the evolvable dimensions of each geometry type in
// encoding order.
var geometryGenes = map[GeometryType][]string{
	Box:      {"width", "length", "depth"},
	Sphere:   {"radius"},
	Cylinder: {"radius", "length"},
	Capsule:  {"radius", "length"},
}

// Geometry is the shape of a link. Only the dimensions of its Type are
// meaningful.
type Geometry struct {
	Type   GeometryType `yaml:"type" validate:"oneof=box sphere cylinder capsule"`
	Width  float64      `yaml:"width,omitempty" validate:"gte=0"`
	Length float64      `yaml:"length,omitempty" validate:"gte=0"`
	Depth  float64      `yaml:"depth,omitempty" validate:"gte=0"`
	Radius float64      `yaml:"radius,omitempty" validate:"gte=0"`
}

// Kind includes the geometry type, so subtree crossover only swaps shapes
// of the same type.
func (g Geometry) Kind() string { return "geometry." + string(g.Type) }

func (g Geometry) Fields() []gene.Field {
	table := currentGenes()
	names := geometryGenes[g.Type]
	out := make([]gene.Field, 0, len(names))
	for _, name := range names {
		out = append(out, gene.Field{
			Name:  name,
			Gene:  table.Geometry[g.Type][name],
			Value: gene.Number{V: g.dim(name)},
		})
	}
	return out
}

func (g Geometry) With(name string, v gene.Value) (gene.Record, error) {
	f, err := gene.NumberOf(v)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", g.Kind(), name, err)
	}
	switch name {
	case "width":
		g.Width = f
	case "length":
		g.Length = f
	case "depth":
		g.Depth = f
	case "radius":
		g.Radius = f
	default:
		return nil, fmt.Errorf("%w: %s has no field %q", gene.ErrSchemaMismatch, g.Kind(), name)
	}
	return g, nil
}

func (g Geometry) dim(name string) float64 {
	switch name {
	case "width":
		return g.Width
	case "length":
		return g.Length
	case "depth":
		return g.Depth
	case "radius":
		return g.Radius
	}
	return 0
}

func (g Geometry) check() error {
	names, ok := geometryGenes[g.Type]
	if !ok {
		return fmt.Errorf("%w: geometry type %q", ErrInvalidRobot, g.Type)
	}
	for _, name := range names {
		if g.dim(name) <= 0 {
			return fmt.Errorf("%w: %s %s must be positive", ErrInvalidRobot, g.Type, name)
		}
	}
	return nil
}

// Link is a rigid body: a finger segment, a fingertip or, wrapped in Base,
// the palm.
type Link struct {
	Name     string   `yaml:"name" validate:"required"`
	Mass     float64  `yaml:"mass" validate:"gt=0"`
	Geometry Geometry `yaml:"geometry"`
}

func (Link) Kind() string { return "link" }
func (Link) Role() string { return "segment" }

func (l Link) Fields() []gene.Field {
	return []gene.Field{{Name: "geometry", Value: gene.Nested{Record: l.Geometry}}}
}

func (l Link) With(name string, v gene.Value) (gene.Record, error) {
	if name != "geometry" {
		return nil, fmt.Errorf("%w: link has no field %q", gene.ErrSchemaMismatch, name)
	}
	geom, err := gene.As[Geometry](v)
	if err != nil {
		return nil, fmt.Errorf("link.geometry: %w", err)
	}
	l.Geometry = geom
	return l, nil
}

type Base struct {
	Link `yaml:",inline"`
}

func (Base) Kind() string { return "base" }
func (Base) Role() string { return "base" }

func (b Base) With(name string, v gene.Value) (gene.Record, error) {
	r, err := b.Link.With(name, v)
	if err != nil {
		return nil, err
	}
	return Base{Link: r.(Link)}, nil
}

// Attachment places a finger on the base: polar coordinates around the
// base center, a vertical offset and a yaw around the finger's own axis.
type Attachment struct {
	Angle     float64 `yaml:"angle"`
	Radius    float64 `yaml:"radius" validate:"gte=0"`
	ZOffset   float64 `yaml:"z_offset"`
	YawOffset float64 `yaml:"yaw_offset"`
}

var attachmentGenes = []string{"angle", "radius", "yaw_offset"}

func (Attachment) Kind() string { return "attachment" }

func (a Attachment) Fields() []gene.Field {
	table := currentGenes()
	values := map[string]float64{"angle": a.Angle, "radius": a.Radius, "yaw_offset": a.YawOffset}
	out := make([]gene.Field, 0, len(attachmentGenes))
	for _, name := range attachmentGenes {
		out = append(out, gene.Field{Name: name, Gene: table.Attachment[name], Value: gene.Number{V: values[name]}})
	}
	return out
}

func (a Attachment) With(name string, v gene.Value) (gene.Record, error) {
	f, err := gene.NumberOf(v)
	if err != nil {
		return nil, fmt.Errorf("attachment.%s: %w", name, err)
	}
	switch name {
	case "angle":
		a.Angle = f
	case "radius":
		a.Radius = f
	case "yaw_offset":
		a.YawOffset = f
	default:
		return nil, fmt.Errorf("%w: attachment has no field %q", gene.ErrSchemaMismatch, name)
	}
	return a, nil
}

// FingerDefaults are joint properties shared by every segment of a finger.
type FingerDefaults struct {
	AngleLimit [2]float64 `yaml:"angle_limit"`
	Damping    float64    `yaml:"damping" validate:"gte=0"`
}

type Finger struct {
	Defaults   FingerDefaults `yaml:"defaults"`
	Attachment Attachment     `yaml:"attachment"`
	Segments   []Link         `yaml:"segments" validate:"min=1,dive"`
	Fingertip  *Link          `yaml:"fingertip,omitempty"`
}

func (Finger) Kind() string { return "finger" }
func (Finger) Role() string { return "finger" }

func (f Finger) Fields() []gene.Field {
	return []gene.Field{
		{Name: "attachment", Value: gene.Nested{Record: f.Attachment}},
		{Name: "segments", Gene: currentGenes().Segments, Value: gene.Seq{
			Items: gene.Records(f.Segments),
			Elem:  prototype(f.Segments, DefaultSegment()),
		}},
	}
}

func (f Finger) With(name string, v gene.Value) (gene.Record, error) {
	out, err := deepCopy(f)
	if err != nil {
		return nil, err
	}
	switch name {
	case "attachment":
		out.Attachment, err = gene.As[Attachment](v)
	case "segments":
		var s gene.Seq
		if s, err = gene.SeqOf(v); err == nil {
			out.Segments, err = gene.Items[Link](s)
		}
	default:
		return nil, fmt.Errorf("%w: finger has no field %q", gene.ErrSchemaMismatch, name)
	}
	if err != nil {
		return nil, fmt.Errorf("finger.%s: %w", name, err)
	}
	return out, nil
}

// Robot is the genotype root.
type Robot struct {
	Base    Base     `yaml:"base"`
	Fingers []Finger `yaml:"fingers" validate:"min=1,dive"`
}

func (Robot) Kind() string { return "robot" }

func (r Robot) Fields() []gene.Field {
	return []gene.Field{
		{Name: "base", Value: gene.Nested{Record: r.Base}},
		{Name: "fingers", Gene: currentGenes().Fingers, Value: gene.Seq{
			Items: gene.Records(r.Fingers),
			Elem:  prototype(r.Fingers, DefaultFinger()),
		}},
	}
}

func (r Robot) With(name string, v gene.Value) (gene.Record, error) {
	out, err := deepCopy(r)
	if err != nil {
		return nil, err
	}
	switch name {
	case "base":
		out.Base, err = gene.As[Base](v)
	case "fingers":
		var s gene.Seq
		if s, err = gene.SeqOf(v); err == nil {
			out.Fingers, err = gene.Items[Finger](s)
		}
	default:
		return nil, fmt.Errorf("%w: robot has no field %q", gene.ErrSchemaMismatch, name)
	}
	if err != nil {
		return nil, fmt.Errorf("robot.%s: %w", name, err)
	}
	return out, nil
}

// Validate checks the physical constraints of r and that every gene value
// and list length is within its annotation.
func (r Robot) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRobot, err)
	}
	links := []Link{r.Base.Link}
	for _, f := range r.Fingers {
		links = append(links, f.Segments...)
		if f.Fingertip != nil {
			links = append(links, *f.Fingertip)
		}
	}
	for _, l := range links {
		if err := l.Geometry.check(); err != nil {
			return fmt.Errorf("link %q: %w", l.Name, err)
		}
	}
	return gene.Check(r)
}

// DefaultSegment is the prototype segment used when a finger has none.
func DefaultSegment() Link {
	return Link{Name: "segment", Mass: 0.02, Geometry: Geometry{Type: Capsule, Radius: 0.01, Length: 0.04}}
}

// DefaultFinger is the prototype finger used when a robot has none.
func DefaultFinger() Finger {
	return Finger{
		Defaults:   FingerDefaults{AngleLimit: [2]float64{-1.57, 1.57}, Damping: 0.1},
		Attachment: Attachment{Radius: 0.05},
		Segments:   []Link{DefaultSegment()},
	}
}

// prototype returns proto only for empty lists. A non-empty list is its own
// prototype, so element width follows the geometry actually in use.
func prototype[T gene.Record](items []T, proto T) gene.Record {
	if len(items) > 0 {
		return nil
	}
	return proto
}

func deepCopy[T any](src T) (T, error) {
	var dst T
	if err := copier.CopyWithOption(&dst, &src, copier.Option{DeepCopy: true}); err != nil {
		return dst, fmt.Errorf("copy %T: %w", src, err)
	}
	return dst, nil
}
