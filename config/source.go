package config

// Source indicates where a configuration value came from.
type Source string

// Configuration source constants.
const (
	// SourceDefault indicates the value is a built-in default.
	SourceDefault Source = "default"

	// SourceGlobal indicates ~/.config/reviewdesk/config.yaml.
	SourceGlobal Source = "global"

	// SourceLocal indicates .reviewdesk.yaml in the git root.
	SourceLocal Source = "local"

	// SourceDotEnv indicates a .env file entry.
	SourceDotEnv Source = "dotenv"

	// SourceEnv indicates an environment variable.
	SourceEnv Source = "env"

	// SourceFlag indicates a command-line flag.
	SourceFlag Source = "flag"
)
