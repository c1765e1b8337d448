package seed

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"roommatch/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed personas.yaml
var defaultPersonas []byte

// Persona is a fixed demo account described in YAML.
type Persona struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Age          int    `yaml:"age"`
	Location     string `yaml:"location"`
	Bio          string `yaml:"bio"`
	Gender       string `yaml:"gender"`
	Profession   string `yaml:"profession"`
	Budget       *int   `yaml:"budget"`
	MoveInDate   string `yaml:"moveInDate"`
	Smoking      *bool  `yaml:"smoking"`
	Drinking     string `yaml:"drinking"`
	Pets         *bool  `yaml:"pets"`
	Cleanliness  string `yaml:"cleanliness"`
	SocialLevel  string `yaml:"socialLevel"`
	WorkFromHome *bool  `yaml:"workFromHome"`
	Guests       string `yaml:"guests"`
	Music        string `yaml:"music"`
	Cooking      string `yaml:"cooking"`
}

// DefaultPersonas returns the personas bundled with the binary.
func DefaultPersonas() ([]Persona, error) {
	return LoadPersonas(bytes.NewReader(defaultPersonas))
}

// LoadPersonas decodes a YAML list of personas and checks the fields a
// profile cannot do without.
func LoadPersonas(r io.Reader) ([]Persona, error) {
	var personas []Persona
	if err := yaml.NewDecoder(r).Decode(&personas); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode personas: %w", err)
	}

	seen := make(map[string]bool, len(personas))
	for i := range personas {
		p := &personas[i]
		p.Email = models.NormalizeEmail(p.Email)
		switch {
		case p.Email == "":
			return nil, fmt.Errorf("persona %d: email is required", i)
		case strings.TrimSpace(p.Name) == "":
			return nil, fmt.Errorf("persona %s: name is required", p.Email)
		case p.Age < 18 || p.Age > 100:
			return nil, fmt.Errorf("persona %s: age must be between 18 and 100", p.Email)
		case strings.TrimSpace(p.Location) == "":
			return nil, fmt.Errorf("persona %s: location is required", p.Email)
		case seen[p.Email]:
			return nil, fmt.Errorf("persona %s: duplicate email", p.Email)
		}
		seen[p.Email] = true
	}
	return personas, nil
}

// Profile converts the persona into a profile row for userID.
func (p Persona) Profile(userID uint) *models.Profile {
	return &models.Profile{
		UserID:       userID,
		Name:         strings.TrimSpace(p.Name),
		Age:          p.Age,
		Bio:          p.Bio,
		Location:     p.Location,
		Gender:       p.Gender,
		Profession:   p.Profession,
		Budget:       p.Budget,
		MoveInDate:   p.MoveInDate,
		Smoking:      p.Smoking,
		Drinking:     p.Drinking,
		Pets:         p.Pets,
		Cleanliness:  p.Cleanliness,
		SocialLevel:  p.SocialLevel,
		WorkFromHome: p.WorkFromHome,
		Guests:       p.Guests,
		Music:        p.Music,
		Cooking:      p.Cooking,
	}
}
