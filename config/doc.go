// Package config resolves reviewdesk settings from layered sources.
//
// Precedence, highest first:
//  1. Command-line flags
//  2. Environment variables (REVIEWDESK_ prefix, plus NO_COLOR)
//  3. .env in the working directory (never overrides the environment)
//  4. Local config (.reviewdesk.yaml in the git root)
//  5. Global config (~/.config/reviewdesk/config.yaml)
//  6. Built-in defaults
//
// Each resolved value records its Source, so "reviewdesk config show" can
// explain where a setting came from:
//
//	resolved := config.DefaultResolver().ResolveWithFlags(flags)
//	settings, err := config.Load(resolved)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(settings.APIBase, resolved.Source(config.KeyAPIBase))
//
// SaveConfig writes single keys back to the global or local file, which is
// what "reviewdesk config set" uses.
package config
