package cli

// Config holds the configuration for a generate run
type Config struct {
	// ManifestPath is the YAML or TOML manifest listing the targets
	ManifestPath string

	// Workers bounds how many types are transformed concurrently
	Workers int

	// DryRun transforms every target without writing any file
	DryRun bool
}
