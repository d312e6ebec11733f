package robot

import (
	"fmt"
	"io"
	"maps"
	"math"
	"sync"

	"gopkg.in/yaml.v3"

	"evodex/internal/gene"
)

// GeneTable holds every annotation of the robot schema.
type GeneTable struct {
	Geometry   map[GeometryType]map[string]gene.Scalar
	Attachment map[string]gene.Scalar
	Fingers    gene.List
	Segments   gene.List
}

func DefaultGeneTable() GeneTable {
	return GeneTable{
		Geometry: map[GeometryType]map[string]gene.Scalar{
			Box: {
				"width":  gene.MustScalar(0.02, 0.01, 0.5),
				"length": gene.MustScalar(0.02, 0.01, 0.5),
				"depth":  gene.MustScalar(0.01, 0.01, 0.1),
			},
			Capsule: {
				"radius": gene.MustScalar(0.01, 0.005, 0.5),
				"length": gene.MustScalar(0.02, 0.01, 0.2),
			},
			Cylinder: {
				"radius": gene.MustScalar(0.01, 0.005, 0.5),
				"length": gene.MustScalar(0.02, 0.01, 0.2),
			},
			Sphere: {
				"radius": gene.MustScalar(0.02, 0.005, 0.1),
			},
		},
		Attachment: map[string]gene.Scalar{
			"angle":      gene.MustScalar(0.1, -math.Pi, math.Pi),
			"radius":     gene.MustScalar(0.02, 0.02, 0.2),
			"yaw_offset": gene.MustScalar(0.1, -math.Pi, math.Pi),
		},
		Fingers:  gene.MustList(gene.Parallel, 1, 8, 0.1, 0.05),
		Segments: gene.MustList(gene.Chain, 1, 8, 0.1, 0.1),
	}
}

// Validate checks that every gene of the schema is present and valid.
func (t GeneTable) Validate() error {
	for typ, names := range geometryGenes {
		for _, name := range names {
			s, ok := t.Geometry[typ][name]
			if !ok {
				return fmt.Errorf("%w: missing %s.%s", ErrUnknownGene, typ, name)
			}
			if err := s.Validate(); err != nil {
				return fmt.Errorf("%s.%s: %w", typ, name, err)
			}
		}
	}
	for _, name := range attachmentGenes {
		s, ok := t.Attachment[name]
		if !ok {
			return fmt.Errorf("%w: missing attachment.%s", ErrUnknownGene, name)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("attachment.%s: %w", name, err)
		}
	}
	if err := t.Fingers.Validate(); err != nil {
		return fmt.Errorf("fingers: %w", err)
	}
	if err := t.Segments.Validate(); err != nil {
		return fmt.Errorf("segments: %w", err)
	}
	return nil
}

func (t GeneTable) clone() GeneTable {
	out := t
	out.Geometry = make(map[GeometryType]map[string]gene.Scalar, len(t.Geometry))
	for typ, genes := range t.Geometry {
		out.Geometry[typ] = maps.Clone(genes)
	}
	out.Attachment = maps.Clone(t.Attachment)
	return out
}

var activeGenes = struct {
	mu sync.RWMutex
	t  *GeneTable
}{}

func init() {
	t := DefaultGeneTable()
	activeGenes.t = &t
}

func currentGenes() *GeneTable {
	activeGenes.mu.RLock()
	defer activeGenes.mu.RUnlock()
	return activeGenes.t
}

// CurrentGeneTable returns a copy of the table in use.
func CurrentGeneTable() GeneTable {
	return currentGenes().clone()
}

// SetGeneTable replaces the annotations used by every robot record. It
// should be called before any variation runs.
func SetGeneTable(t GeneTable) error {
	if err := t.Validate(); err != nil {
		return err
	}
	c := t.clone()
	activeGenes.mu.Lock()
	activeGenes.t = &c
	activeGenes.mu.Unlock()
	return nil
}

type geneTableFile struct {
	Geometry   map[GeometryType]map[string]yaml.Node `yaml:"geometry"`
	Attachment map[string]yaml.Node                  `yaml:"attachment"`
	Fingers    *yaml.Node                            `yaml:"fingers"`
	Segments   *yaml.Node                            `yaml:"segments"`
}

// LoadGeneTable reads YAML overrides on top of the default table. Entries
// may be partial: a gene that only sets mutation_std keeps its default
// bounds.
func LoadGeneTable(r io.Reader) (GeneTable, error) {
	var file geneTableFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return GeneTable{}, fmt.Errorf("decode gene table: %w", err)
	}

	t := DefaultGeneTable()
	for typ, entries := range file.Geometry {
		genes, ok := t.Geometry[typ]
		if !ok {
			return GeneTable{}, fmt.Errorf("%w: geometry type %q", ErrUnknownGene, typ)
		}
		for name, node := range entries {
			if err := overlayScalar(genes, name, &node); err != nil {
				return GeneTable{}, fmt.Errorf("%s: %w", typ, err)
			}
		}
	}
	for name, node := range file.Attachment {
		if err := overlayScalar(t.Attachment, name, &node); err != nil {
			return GeneTable{}, fmt.Errorf("attachment: %w", err)
		}
	}
	if file.Fingers != nil {
		if err := file.Fingers.Decode(&t.Fingers); err != nil {
			return GeneTable{}, fmt.Errorf("fingers: %w", err)
		}
	}
	if file.Segments != nil {
		if err := file.Segments.Decode(&t.Segments); err != nil {
			return GeneTable{}, fmt.Errorf("segments: %w", err)
		}
	}
	if err := t.Validate(); err != nil {
		return GeneTable{}, err
	}
	return t, nil
}

func overlayScalar(genes map[string]gene.Scalar, name string, node *yaml.Node) error {
	s, ok := genes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGene, name)
	}
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	genes[name] = s
	return nil
}
