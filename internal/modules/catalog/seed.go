package catalog

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SeedData is the on-disk seed document. Plants reference categories by Key.
type SeedData struct {
	Categories []SeedCategory `yaml:"categories"`
	Plants     []SeedPlant    `yaml:"plants"`
}

type SeedCategory struct {
	Key         string `yaml:"key"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

type SeedPlant struct {
	Name             string   `yaml:"name"`
	Price            float64  `yaml:"price"`
	Category         string   `yaml:"category"`
	Images           []string `yaml:"images"`
	Availability     int      `yaml:"availability"`
	Instruction      []string `yaml:"instruction"`
	Benefits         []string `yaml:"benefits"`
	Difficulty       string   `yaml:"difficulty"`
	LightRequirement string   `yaml:"lightRequirement"`
	Featured         bool     `yaml:"featured"`
}

// SeedResult counts what a Seed call inserted.
type SeedResult struct {
	Categories int `json:"categories"`
	Plants     int `json:"plants"`
	Skipped    int `json:"skipped"`
}

// DecodeSeed reads a YAML seed document.
func DecodeSeed(r io.Reader) (*SeedData, error) {
	var data SeedData
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &data, nil
}

func (sp SeedPlant) input(categoryID string) PlantInput {
	in := PlantInput{
		Name:         &sp.Name,
		Price:        &sp.Price,
		Category:     &categoryID,
		Availability: &sp.Availability,
		Featured:     &sp.Featured,
	}
	if sp.Images != nil {
		in.Images = &sp.Images
	}
	if sp.Instruction != nil {
		in.Instruction = &sp.Instruction
	}
	if sp.Benefits != nil {
		in.Benefits = &sp.Benefits
	}
	if sp.Difficulty != "" {
		in.Difficulty = &sp.Difficulty
	}
	if sp.LightRequirement != "" {
		in.LightRequirement = &sp.LightRequirement
	}
	return in
}
