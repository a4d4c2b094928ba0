package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SpaceIDLength is the length of every Contentful space id.
const SpaceIDLength = 12

// Space is one configured Contentful space.
type Space struct {
	Name            string `yaml:"name" json:"name"`
	SpaceID         string `yaml:"space-id" json:"spaceId"`
	ManagementToken string `yaml:"management-token,omitempty" json:"-"`
	DeliveryToken   string `yaml:"delivery-token,omitempty" json:"-"`
}

// Warnings returns non-fatal problems with the space definition.
func (s Space) Warnings() []string {
	var warnings []string
	if len(s.SpaceID) != SpaceIDLength {
		warnings = append(warnings, fmt.Sprintf("space %q: space IDs are %d characters long, got %q", s.Name, SpaceIDLength, s.SpaceID))
	}
	if s.ManagementToken == "" {
		warnings = append(warnings, fmt.Sprintf("space %q: no management token configured", s.Name))
	}
	return warnings
}

// spacesFile is the part of config.yaml read by LoadSpaces.
type spacesFile struct {
	Spaces []Space `yaml:"spaces"`
}

// LoadSpaces reads the spaces list from a config file.
// A missing file yields no spaces.
func LoadSpaces(configPath string) ([]Space, error) {
	if configPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from caller
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	var cfg spacesFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config.yaml: %w", err)
	}
	if err := validateSpaces(cfg.Spaces); err != nil {
		return nil, err
	}
	return cfg.Spaces, nil
}

func validateSpaces(spaces []Space) error {
	names := make(map[string]bool)
	ids := make(map[string]bool)
	for i, s := range spaces {
		if s.Name == "" {
			return fmt.Errorf("spaces[%d]: name is required", i)
		}
		if s.SpaceID == "" {
			return fmt.Errorf("space %q: space-id is required", s.Name)
		}
		if names[s.Name] {
			return fmt.Errorf("a space with the name %q already exists", s.Name)
		}
		if ids[s.SpaceID] {
			return fmt.Errorf("a space with the ID %q already exists", s.SpaceID)
		}
		names[s.Name] = true
		ids[s.SpaceID] = true
	}
	return nil
}

// Spaces returns the spaces of the loaded config file.
func Spaces() ([]Space, error) {
	return LoadSpaces(ConfigFileUsed())
}

// SelectSpace picks a configured space by name or space id. An empty name
// falls back to the "space" setting, then to the only configured space.
// CFU_MANAGEMENT_TOKEN overrides the selected space's management token.
func SelectSpace(name string) (*Space, error) {
	spaces, err := Spaces()
	if err != nil {
		return nil, err
	}
	return selectSpace(spaces, name)
}

func selectSpace(spaces []Space, name string) (*Space, error) {
	if name == "" {
		name = GetString("space")
	}

	var chosen *Space
	switch {
	case name != "":
		for i := range spaces {
			if spaces[i].Name == name || spaces[i].SpaceID == name {
				chosen = &spaces[i]
				break
			}
		}
		if chosen == nil {
			if len(spaces) == 0 {
				// An unconfigured id still works when a token comes from the environment.
				chosen = &Space{Name: name, SpaceID: name}
			} else {
				return nil, fmt.Errorf("no space named %q in config (have: %s)", name, strings.Join(spaceNames(spaces), ", "))
			}
		}
	case len(spaces) == 1:
		chosen = &spaces[0]
	case len(spaces) == 0:
		return nil, fmt.Errorf("no spaces configured; add one to %s or pass --space", configHint())
	default:
		return nil, fmt.Errorf("multiple spaces configured, choose one with --space (have: %s)", strings.Join(spaceNames(spaces), ", "))
	}

	space := *chosen
	if token := os.Getenv("CFU_MANAGEMENT_TOKEN"); token != "" {
		space.ManagementToken = token
	}
	return &space, nil
}

func spaceNames(spaces []Space) []string {
	names := make([]string, 0, len(spaces))
	for _, s := range spaces {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func configHint() string {
	if used := ConfigFileUsed(); used != "" {
		return used
	}
	return ConfigDir() + string(os.PathSeparator) + "config.yaml"
}
