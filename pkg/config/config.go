// Package config loads and validates building configuration documents.
// Configs are YAML (a JSON superset, so plain JSON documents load too) and
// are immutable once handed to the simulation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied when optional geometry fields are omitted.
const (
	DefaultAreaM2      = 20.0
	DefaultCeilingM    = 2.5
	DefaultEdgeLengthM = 1.0
	DefaultEdgeWidthM  = 1.0
	DefaultFloorHeight = 3.0
)

// BuildingConfig describes a building graph, its occupancy model and the
// fire scenario. It is the sole input of Simulation construction.
type BuildingConfig struct {
	Vertices []VertexConfig `yaml:"vertices"`
	Edges    []EdgeConfig   `yaml:"edges"`

	// OccupancyProbabilities define per-room distributions over capable and
	// incapable head counts, sampled once at simulation construction.
	OccupancyProbabilities OccupancyConfig `yaml:"occupancy_probabilities"`

	FireParams FireParams `yaml:"fire_params"`

	// BuildingParams are only needed for multi-floor buildings.
	BuildingParams BuildingParams `yaml:"building_params,omitempty"`
}

// VertexConfig describes one vertex of the building graph.
type VertexConfig struct {
	ID   string `yaml:"id"`
	Kind string `yaml:"kind"`

	Floor int `yaml:"floor,omitempty"`

	// Capacity is the maximum occupant head count of the vertex.
	Capacity int `yaml:"capacity"`

	// Priority weights the room's occupants in rescue-item values.
	Priority float64 `yaml:"priority,omitempty"`

	// SweepTime is an advisory per-room search cost used by authoring tools.
	SweepTime float64 `yaml:"sweep_time,omitempty"`

	AreaM2         float64  `yaml:"area_m2,omitempty"`
	CeilingHeightM float64  `yaml:"ceiling_height_m,omitempty"`
	VisualPosition Position `yaml:"visual_position"`

	RoomType       string `yaml:"room_type,omitempty"`
	StaircaseGroup string `yaml:"staircase_group,omitempty"`
}

// Position is a 2-D visual placement.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// EdgeConfig describes one undirected edge.
type EdgeConfig struct {
	ID      string `yaml:"id"`
	VertexA string `yaml:"vertex_a"`
	VertexB string `yaml:"vertex_b"`

	// MaxFlow is the per-tick traversal budget of the edge.
	MaxFlow int `yaml:"max_flow"`

	WidthM       float64 `yaml:"width_m,omitempty"`
	BaseBurnRate float64 `yaml:"base_burn_rate"`

	// UnitLength overrides the default 1 m edge length; staircase edges
	// carry their configured vertical run here.
	UnitLength float64 `yaml:"unit_length,omitempty"`

	Kind string `yaml:"kind,omitempty"`
}

// OccupancyConfig holds the occupancy distributions. Rooms without a
// dedicated entry fall back to Defaults; rooms absent from both start empty.
type OccupancyConfig struct {
	Defaults *RoomOccupancy           `yaml:"defaults,omitempty"`
	Rooms    map[string]RoomOccupancy `yaml:"rooms,omitempty"`
}

// RoomOccupancy is a pair of count distributions for one room.
type RoomOccupancy struct {
	Capable   []CountProb `yaml:"capable,omitempty"`
	Incapable []CountProb `yaml:"incapable,omitempty"`
}

// CountProb is one point mass of an occupant-count distribution.
type CountProb struct {
	Count int     `yaml:"count"`
	P     float64 `yaml:"p"`
}

// FireParams configure the fire scenario.
type FireParams struct {
	OriginVertexID    string  `yaml:"origin_vertex_id"`
	InitialSmokeLevel float64 `yaml:"initial_smoke_level,omitempty"`
}

// BuildingParams carry multi-floor geometry.
type BuildingParams struct {
	NumFloors    int     `yaml:"num_floors,omitempty"`
	FloorHeightM float64 `yaml:"floor_height_m,omitempty"`
}

// FloorHeight returns the configured floor height or the default.
func (b BuildingParams) FloorHeight() float64 {
	if b.FloorHeightM > 0 {
		return b.FloorHeightM
	}
	return DefaultFloorHeight
}

// Load reads and validates a building config file.
func Load(path string) (*BuildingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read building config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a building config document.
func Parse(data []byte) (*BuildingConfig, error) {
	var cfg BuildingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse building config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid building config: %w", err)
	}
	return &cfg, nil
}
