package data

import (
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// LevelObject is one object template placed in a zone's level file.
// Settings are raw LDF lines of the form key=type:value.
type LevelObject struct {
	ObjectID int64      `yaml:"id"`
	Lot      int32      `yaml:"lot"`
	Position [3]float32 `yaml:"position"`
	Rotation [4]float32 `yaml:"rotation"` // x, y, z, w
	Scale    float32    `yaml:"scale"`
	Settings []string   `yaml:"settings"`
}

// Level is the parsed content of a zone's level file.
type Level struct {
	ZoneID        uint16        `yaml:"zone_id"`
	SpawnPosition [3]float32    `yaml:"spawn_position"`
	SpawnRotation [4]float32    `yaml:"spawn_rotation"`
	Objects       []LevelObject `yaml:"objects"`

	// Checksum is the xxhash of the raw level file.
	Checksum uint64 `yaml:"-"`
}

// LoadLevel reads and parses a level file.
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level %s: %w", path, err)
	}
	return ParseLevel(raw)
}

func ParseLevel(raw []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(raw, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	for i := range lvl.Objects {
		if lvl.Objects[i].Scale == 0 {
			lvl.Objects[i].Scale = 1
		}
		if lvl.Objects[i].Rotation == [4]float32{} {
			lvl.Objects[i].Rotation[3] = 1
		}
	}
	lvl.Checksum = xxhash.Sum64(raw)
	return &lvl, nil
}
