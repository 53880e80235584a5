// Package worldfile loads a scenario (catalog, nodes, storehouses, construction sites,
// transports and blocked connections) from YAML into an in-process world.
package worldfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"logistics/internal/adapters/out/world"
	"logistics/internal/core/domain/model/catalog"
	"logistics/internal/core/domain/model/kernel"
	"logistics/internal/core/domain/model/node"
	"logistics/internal/core/domain/model/transport"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScenario []byte

type File struct {
	Catalog    Catalog     `yaml:"catalog"`
	Nodes      []Node      `yaml:"nodes"`
	Transports []Transport `yaml:"transports"`
	Blocked    [][2]string `yaml:"blocked"`
}

type Catalog struct {
	Resources []string `yaml:"resources"`
	Items     []Item   `yaml:"items"`
}

type Item struct {
	ID           string   `yaml:"id"`
	Mass         float64  `yaml:"mass"`
	Volume       float64  `yaml:"volume"`
	Value        float64  `yaml:"value"`
	PerishRate   float64  `yaml:"perish_rate"`
	ContainerTag string   `yaml:"container_tag"`
	Tags         []string `yaml:"tags"`
}

type Node struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Kind         string        `yaml:"kind"`
	Position     [3]float64    `yaml:"position"`
	Services     Services      `yaml:"services"`
	Risk         float64       `yaml:"risk"`
	Restricted   bool          `yaml:"restricted"`
	Covert       bool          `yaml:"covert"`
	Storehouse   *Storehouse   `yaml:"storehouse"`
	Construction *Construction `yaml:"construction"`
}

type Services struct {
	LoadSlots   int      `yaml:"load_slots"`
	UnloadSlots int      `yaml:"unload_slots"`
	Offered     []string `yaml:"offered"`
}

type Storehouse struct {
	Capacity map[string]float64 `yaml:"capacity"`
	Stock    map[string]float64 `yaml:"stock"`
}

type Construction struct {
	Required map[string]float64 `yaml:"required"`
}

type Transport struct {
	ID              string      `yaml:"id"`
	Name            string      `yaml:"name"`
	MaxMass         float64     `yaml:"max_mass"`
	MaxVolume       float64     `yaml:"max_volume"`
	Virtual         bool        `yaml:"virtual"`
	Position        *[3]float64 `yaml:"position"`
	UnloadingSignal *bool       `yaml:"unloading_signal"`
	Slots           []Slot      `yaml:"slots"`
}

type Slot struct {
	ID     string  `yaml:"id"`
	Tag    string  `yaml:"tag"`
	Volume float64 `yaml:"volume"`
}

// Scenario is a populated world plus the ids assigned to named nodes and transports.
type Scenario struct {
	World      *world.World
	Nodes      map[string]kernel.UUID
	Transports map[string]kernel.UUID
}

// Load reads and parses a scenario file.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Default returns the built-in scenario: one warehouse, one construction site and a cart.
func Default() (*File, error) {
	return Parse(defaultScenario)
}

func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

var serviceFlags = map[string]node.ServiceFlags{
	"loading":   node.FlagLoading,
	"unloading": node.FlagUnloading,
	"refuel":    node.FlagRefuel,
	"repair":    node.FlagRepair,
	"customs":   node.FlagCustoms,
}

// Build validates every entry and returns the world it describes. Names must be unique
// within nodes and within transports; blocked pairs refer to node names.
func (f *File) Build() (*Scenario, error) {
	items := make([]catalog.ItemSpec, 0, len(f.Catalog.Items))
	for _, it := range f.Catalog.Items {
		items = append(items, catalog.ItemSpec{
			ID:           it.ID,
			Mass:         it.Mass,
			Volume:       it.Volume,
			Value:        it.Value,
			PerishRate:   it.PerishRate,
			ContainerTag: it.ContainerTag,
			Tags:         it.Tags,
		})
	}
	cat, err := catalog.NewCatalog(items, f.Catalog.Resources)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	sc := &Scenario{
		World:      world.New(cat),
		Nodes:      make(map[string]kernel.UUID, len(f.Nodes)),
		Transports: make(map[string]kernel.UUID, len(f.Transports)),
	}
	for i, spec := range f.Nodes {
		if err = sc.addNode(spec); err != nil {
			return nil, fmt.Errorf("nodes[%d] %q: %w", i, spec.Name, err)
		}
	}
	for i, spec := range f.Transports {
		if err = sc.addTransport(spec); err != nil {
			return nil, fmt.Errorf("transports[%d] %q: %w", i, spec.Name, err)
		}
	}
	for i, pair := range f.Blocked {
		from, okFrom := sc.Nodes[pair[0]]
		to, okTo := sc.Nodes[pair[1]]
		if !okFrom || !okTo {
			return nil, fmt.Errorf("blocked[%d]: unknown node in %v", i, pair)
		}
		sc.World.SetBlocked(from, to, true)
	}
	return sc, nil
}

func (sc *Scenario) addNode(spec Node) error {
	if _, dup := sc.Nodes[spec.Name]; dup {
		return errors.New("duplicate node name")
	}
	id, err := parseID(spec.ID)
	if err != nil {
		return err
	}
	kind, err := node.ParseKind(spec.Kind)
	if err != nil {
		return err
	}
	pos, err := kernel.NewLocation(spec.Position[0], spec.Position[1], spec.Position[2])
	if err != nil {
		return err
	}
	var offered node.ServiceFlags
	for _, name := range spec.Services.Offered {
		flag, ok := serviceFlags[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown service %q", name)
		}
		offered |= flag
	}

	n, err := node.NewNode(id, spec.Name, kind, pos,
		node.Services{LoadSlots: spec.Services.LoadSlots, UnloadSlots: spec.Services.UnloadSlots, Offered: offered},
		node.Attributes{Risk: spec.Risk, Restricted: spec.Restricted, Covert: spec.Covert})
	if err != nil {
		return err
	}
	sc.World.AddNode(n)
	if spec.Storehouse != nil {
		sc.World.AddStorehouse(id, spec.Storehouse.Capacity, spec.Storehouse.Stock)
	}
	if spec.Construction != nil {
		sc.World.AddConstructionSite(id, spec.Construction.Required)
	}
	sc.Nodes[spec.Name] = id
	return nil
}

func (sc *Scenario) addTransport(spec Transport) error {
	if _, dup := sc.Transports[spec.Name]; dup {
		return errors.New("duplicate transport name")
	}
	id, err := parseID(spec.ID)
	if err != nil {
		return err
	}
	var opts []transport.Option
	if spec.Virtual {
		opts = append(opts, transport.Virtual())
	}
	if spec.Position != nil {
		pos, posErr := kernel.NewLocation(spec.Position[0], spec.Position[1], spec.Position[2])
		if posErr != nil {
			return posErr
		}
		opts = append(opts, transport.WithPosition(pos))
	}
	if spec.UnloadingSignal != nil {
		opts = append(opts, transport.WithUnloadingSignal(*spec.UnloadingSignal))
	}
	if len(spec.Slots) > 0 {
		slots := make([]transport.ContainerSlot, 0, len(spec.Slots))
		for _, s := range spec.Slots {
			slots = append(slots, transport.ContainerSlot{ID: s.ID, Tag: s.Tag, Volume: s.Volume})
		}
		opts = append(opts, transport.WithContainerSlots(slots...))
	}

	t, err := transport.NewTransport(id, spec.Name, spec.MaxMass, spec.MaxVolume, opts...)
	if err != nil {
		return err
	}
	sc.World.PutTransport(t)
	sc.Transports[spec.Name] = id
	return nil
}

func parseID(raw string) (kernel.UUID, error) {
	if raw == "" {
		return kernel.NewUUID(), nil
	}
	return kernel.UUIDFromString(raw)
}
