package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/polisai/sslopts/pkg/ssl"
)

// Snapshot is one successfully resolved version of a configuration file.
type Snapshot struct {
	ID         uuid.UUID  `json:"id" yaml:"id"`
	Generation int64      `json:"generation" yaml:"generation"`
	LoadedAt   time.Time  `json:"loadedAt" yaml:"loadedAt"`
	Source     string     `json:"source" yaml:"source"`
	Checksum   string     `json:"checksum" yaml:"checksum"`
	Config     ssl.Config `json:"config" yaml:"config"`
}

// IsZero reports whether no configuration has been loaded yet.
func (s Snapshot) IsZero() bool {
	return s.Generation == 0
}
