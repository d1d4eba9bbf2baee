// Package settings persists the per-side pairing record (address, advertised
// name, paired flag) as a JSON file under the user's home directory.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arclens/glassctl/internal/glass"
)

// Settings is the durable connector configuration. Save writes the whole
// record atomically; callers are expected to Save after every mutation they
// want to survive a restart.
type Settings struct {
	LeftAddress  string `json:"left_address,omitempty"`
	RightAddress string `json:"right_address,omitempty"`
	LeftName     string `json:"left_name,omitempty"`
	RightName    string `json:"right_name,omitempty"`
	LeftPaired   bool   `json:"left_paired,omitempty"`
	RightPaired  bool   `json:"right_paired,omitempty"`

	path string
}

// DefaultPath returns the default settings path (~/.glassctl/config.json).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".glassctl", "config.json"), nil
}

// Load reads settings from path. A missing file yields empty settings bound
// to that path, not an error.
func Load(path string) (*Settings, error) {
	s := &Settings{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return s, nil
}

// LoadDefault loads settings from the default path.
func LoadDefault() (*Settings, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the settings to disk. The file is written to a temp name and
// renamed into place so a crash mid-write never leaves a torn record.
func (s *Settings) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Address returns the saved transport address for a side.
func (s *Settings) Address(side glass.Side) string {
	if side == glass.Left {
		return s.LeftAddress
	}
	return s.RightAddress
}

// SetAddress records the transport address for a side.
func (s *Settings) SetAddress(side glass.Side, addr string) {
	if side == glass.Left {
		s.LeftAddress = addr
	} else {
		s.RightAddress = addr
	}
}

// Name returns the saved advertised name for a side.
func (s *Settings) Name(side glass.Side) string {
	if side == glass.Left {
		return s.LeftName
	}
	return s.RightName
}

// SetName records the advertised name for a side.
func (s *Settings) SetName(side glass.Side, name string) {
	if side == glass.Left {
		s.LeftName = name
	} else {
		s.RightName = name
	}
}

// Paired returns the paired flag for a side.
func (s *Settings) Paired(side glass.Side) bool {
	if side == glass.Left {
		return s.LeftPaired
	}
	return s.RightPaired
}

// SetPaired records the paired flag for a side.
func (s *Settings) SetPaired(side glass.Side, paired bool) {
	if side == glass.Left {
		s.LeftPaired = paired
	} else {
		s.RightPaired = paired
	}
}

// HasAddresses reports whether both sides have a saved address.
func (s *Settings) HasAddresses() bool {
	return s.LeftAddress != "" && s.RightAddress != ""
}

// Clear wipes all per-side records. Used on unpair.
func (s *Settings) Clear() {
	s.LeftAddress = ""
	s.RightAddress = ""
	s.LeftName = ""
	s.RightName = ""
	s.LeftPaired = false
	s.RightPaired = false
}
