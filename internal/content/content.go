// Package content serves the static park information shown alongside the
// trivia: attractions, nearby communities and the conservation project.
package content

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Attraction struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Category    string   `yaml:"category" json:"category"`
	Highlights  []string `yaml:"highlights,omitempty" json:"highlights,omitempty"`
}

type Community struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Distance    string `yaml:"distance,omitempty" json:"distance,omitempty"`
}

type Project struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Goals       []string `yaml:"goals,omitempty" json:"goals,omitempty"`
}

// Park bundles everything the public content endpoints expose.
type Park struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Attractions []Attraction `yaml:"attractions" json:"attractions"`
	Communities []Community  `yaml:"communities" json:"communities"`
	Project     Project      `yaml:"project" json:"project"`
}

// Load reads the park description from a YAML file.
func Load(path string) (Park, error) {
	var park Park
	data, err := os.ReadFile(path)
	if err != nil {
		return park, err
	}
	if err := yaml.Unmarshal(data, &park); err != nil {
		return park, err
	}
	return park, nil
}

// Default returns a built-in park description for when no content file
// is configured.
func Default() Park {
	return Park{
		Name:        "Angostura del Biobio Park",
		Description: "A riverside conservation park on the Biobio, mixing native forest trails with community tourism.",
		Attractions: []Attraction{
			{
				ID:          "mirador-rio",
				Name:        "River Gorge Lookout",
				Description: "Viewpoint over the narrowest stretch of the Biobio river canyon.",
				Category:    "viewpoint",
				Highlights:  []string{"sunset views", "condor sightings"},
			},
			{
				ID:          "sendero-bosque",
				Name:        "Native Forest Trail",
				Description: "A 4 km loop through coihue and araucaria stands.",
				Category:    "trail",
			},
		},
		Communities: []Community{
			{
				ID:          "quilaco",
				Name:        "Quilaco",
				Description: "Gateway town with lodging and local guides.",
				Distance:    "12 km",
			},
		},
		Project: Project{
			Title:       "Angostura Conservation Project",
			Description: "Community-led effort to protect the river gorge and develop sustainable tourism.",
			Goals:       []string{"protect native forest", "train local guides", "fund trail maintenance"},
		},
	}
}
