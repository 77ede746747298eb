package config

import "errors"

// ErrUnknownPreset indicates a preset name with no built-in layout.
var ErrUnknownPreset = errors.New("config: unknown preset")
