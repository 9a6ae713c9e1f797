package domain

// Input names used by script components.
const (
	// InputColors is the script input whose sources are the colour swatches.
	InputColors = "Colors"
)

// MaxInstanceID bounds the random identifiers drawn for script instances: [0, MaxInstanceID).
const MaxInstanceID = 1000

// PrefixSeparator delimits the prefix token of a group nickname ("in_Width").
const PrefixSeparator = "_"
