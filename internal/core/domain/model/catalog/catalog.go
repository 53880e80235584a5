// Package catalog holds the immutable item and resource-type tables produced by the
// external baking step. A Catalog is built once at startup and shared by pointer; nothing
// in the engine mutates it.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"

	"logistics/internal/pkg/errs"
)

// ItemSpec is the per-unit physical description of a resource.
type ItemSpec struct {
	ID     string
	Mass   float64 // kg per unit
	Volume float64 // m³ per unit
	Value  float64 // credits per unit

	// PerishRate is the fraction of an amount lost per tick; zero means durable.
	PerishRate float64

	// ContainerTag names the container slot type the item must ride in ("" for bulk).
	ContainerTag string

	Tags []string
}

// Perishable reports whether the item decays in transit.
func (s ItemSpec) Perishable() bool {
	return s.PerishRate > 0
}

// Catalog is the read-only lookup used by every pipeline stage.
type Catalog struct {
	items     map[string]ItemSpec
	indexByID map[string]int
	idByIndex []string
	digest    string
}

// NewCatalog validates item specs and builds the resource-type table. Resource indices
// follow the order of resourceIDs; every item spec must name a declared resource.
func NewCatalog(items []ItemSpec, resourceIDs []string) (*Catalog, error) {
	c := &Catalog{
		items:     make(map[string]ItemSpec, len(items)),
		indexByID: make(map[string]int, len(resourceIDs)),
		idByIndex: make([]string, 0, len(resourceIDs)),
	}

	var errList []error
	for _, id := range resourceIDs {
		if id == "" {
			errList = append(errList, errs.NewValueIsRequiredError("resource id"))
			continue
		}
		if _, dup := c.indexByID[id]; dup {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("resource id", fmt.Errorf("%q declared twice", id)))
			continue
		}
		c.indexByID[id] = len(c.idByIndex)
		c.idByIndex = append(c.idByIndex, id)
	}

	for _, spec := range items {
		if err := validateSpec(spec); err != nil {
			errList = append(errList, err)
			continue
		}
		if _, ok := c.indexByID[spec.ID]; !ok {
			errList = append(errList, errs.NewValueIsInvalidErrorWithCause("item spec", fmt.Errorf("%q is not a declared resource", spec.ID)))
			continue
		}
		spec.Tags = append([]string(nil), spec.Tags...)
		c.items[spec.ID] = spec
	}

	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	c.digest = c.computeDigest()
	return c, nil
}

func validateSpec(spec ItemSpec) error {
	switch {
	case spec.ID == "":
		return errs.NewValueIsRequiredError("item id")
	case spec.Mass < 0:
		return errs.NewValueIsOutOfRangeError(spec.ID+" mass", spec.Mass, 0, "+inf")
	case spec.Volume < 0:
		return errs.NewValueIsOutOfRangeError(spec.ID+" volume", spec.Volume, 0, "+inf")
	case spec.Value < 0:
		return errs.NewValueIsOutOfRangeError(spec.ID+" value", spec.Value, 0, "+inf")
	case spec.PerishRate < 0 || spec.PerishRate >= 1:
		return errs.NewValueIsOutOfRangeError(spec.ID+" perish rate", spec.PerishRate, 0, 1)
	}
	return nil
}

// Item returns the ItemSpec for a resource id.
func (c *Catalog) Item(id string) (ItemSpec, bool) {
	spec, ok := c.items[id]
	return spec, ok
}

// ResolveResource maps a resource id to its type index.
func (c *Catalog) ResolveResource(id string) (int, bool) {
	idx, ok := c.indexByID[id]
	return idx, ok
}

// ResourceID maps a type index back to its resource id.
func (c *Catalog) ResourceID(index int) (string, bool) {
	if index < 0 || index >= len(c.idByIndex) {
		return "", false
	}
	return c.idByIndex[index], true
}

// ResourceCount returns the number of declared resource types.
func (c *Catalog) ResourceCount() int {
	return len(c.idByIndex)
}

// Digest is a content hash of the catalog, logged at startup so runs can be matched to
// the data they used.
func (c *Catalog) Digest() string {
	return c.digest
}

func (c *Catalog) computeDigest() string {
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	b.WriteString(strings.Join(c.idByIndex, ","))
	for _, id := range ids {
		s := c.items[id]
		fmt.Fprintf(&b, "|%s:%g:%g:%g:%g:%s", s.ID, s.Mass, s.Volume, s.Value, s.PerishRate, s.ContainerTag)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
