package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// mapProvider loads dotted keys ("storage.io_timeout") into koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("confloader: map provider does not support ReadBytes")
}

func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
