package config

import (
	"fmt"
	"math"
	"strings"
)

// vertexKinds are the accepted values of VertexConfig.Kind.
var vertexKinds = map[string]bool{
	"room":         true,
	"hallway":      true,
	"intersection": true,
	"stairwell":    true,
	"exit":         true,
	"window_exit":  true,
}

// Validate checks the structural integrity of the config. It returns the
// first hard error found; advisory findings are discarded here, and a
// Validator collects them in its Warnings.
func (c *BuildingConfig) Validate() error {
	v := NewValidator()
	return v.Validate(c)
}

// Validator performs structural validation and collects non-fatal warnings.
type Validator struct {
	Warnings []string
}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the config. Errors are fatal; warnings accumulate on the
// validator for the caller to log.
func (v *Validator) Validate(c *BuildingConfig) error {
	if len(c.Vertices) == 0 {
		return fmt.Errorf("config has no vertices")
	}

	ids := make(map[string]bool, len(c.Vertices))
	exits := 0
	for i, vc := range c.Vertices {
		if vc.ID == "" {
			return fmt.Errorf("vertex %d has empty id", i)
		}
		if ids[vc.ID] {
			return fmt.Errorf("duplicate vertex id %q", vc.ID)
		}
		ids[vc.ID] = true
		if !vertexKinds[vc.Kind] {
			return fmt.Errorf("vertex %q: unknown kind %q", vc.ID, vc.Kind)
		}
		if vc.Capacity < 0 {
			return fmt.Errorf("vertex %q: negative capacity", vc.ID)
		}
		if vc.Kind == "exit" || vc.Kind == "window_exit" {
			exits++
		}
		if vc.Priority < 0 {
			return fmt.Errorf("vertex %q: negative priority", vc.ID)
		}
	}
	if exits == 0 {
		return fmt.Errorf("config has no exit-kind vertices")
	}

	edgeIDs := make(map[string]bool, len(c.Edges))
	for i, ec := range c.Edges {
		label := ec.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if ec.ID != "" && edgeIDs[ec.ID] {
			return fmt.Errorf("duplicate edge id %q", ec.ID)
		}
		edgeIDs[ec.ID] = true
		if !ids[ec.VertexA] {
			return fmt.Errorf("edge %s: unknown vertex_a %q", label, ec.VertexA)
		}
		if !ids[ec.VertexB] {
			return fmt.Errorf("edge %s: unknown vertex_b %q", label, ec.VertexB)
		}
		if ec.VertexA == ec.VertexB {
			return fmt.Errorf("edge %s: self-loop on %q", label, ec.VertexA)
		}
		if ec.MaxFlow <= 0 {
			return fmt.Errorf("edge %s: max_flow must be positive", label)
		}
		if ec.BaseBurnRate < 0 {
			return fmt.Errorf("edge %s: negative base_burn_rate", label)
		}
		if ec.BaseBurnRate == 0 {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("edge %s has zero base_burn_rate and will never burn", label))
		}
	}

	if c.FireParams.OriginVertexID == "" {
		return fmt.Errorf("fire_params.origin_vertex_id is required")
	}
	if !ids[c.FireParams.OriginVertexID] {
		return fmt.Errorf("fire origin %q is not a vertex", c.FireParams.OriginVertexID)
	}

	if err := v.validateOccupancy(c, ids); err != nil {
		return err
	}

	if c.BuildingParams.NumFloors > 1 && c.BuildingParams.FloorHeightM <= 0 {
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("multi-floor building without floor_height_m, using default %.1f m", DefaultFloorHeight))
	}

	return nil
}

func (v *Validator) validateOccupancy(c *BuildingConfig, ids map[string]bool) error {
	check := func(owner string, dist []CountProb) error {
		if len(dist) == 0 {
			return nil
		}
		var total float64
		for _, cp := range dist {
			if cp.Count < 0 {
				return fmt.Errorf("occupancy for %s: negative count", owner)
			}
			if cp.P < 0 {
				return fmt.Errorf("occupancy for %s: negative probability", owner)
			}
			total += cp.P
		}
		if math.Abs(total-1.0) > 1e-6 {
			v.Warnings = append(v.Warnings,
				fmt.Sprintf("occupancy for %s sums to %.4f, renormalizing", owner, total))
		}
		return nil
	}

	if d := c.OccupancyProbabilities.Defaults; d != nil {
		if err := check("defaults", d.Capable); err != nil {
			return err
		}
		if err := check("defaults", d.Incapable); err != nil {
			return err
		}
	}
	for room, occ := range c.OccupancyProbabilities.Rooms {
		if !ids[room] {
			return fmt.Errorf("occupancy_probabilities.rooms references unknown vertex %q", room)
		}
		if err := check(room, occ.Capable); err != nil {
			return err
		}
		if err := check(room, occ.Incapable); err != nil {
			return err
		}
	}
	return nil
}

// WarningSummary joins the collected warnings for logging.
func (v *Validator) WarningSummary() string {
	return strings.Join(v.Warnings, "; ")
}
