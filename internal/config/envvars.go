// ABOUTME: Environment handling for settings: ${VAR} expansion and API key variables
// ABOUTME: Unset variables expand to empty; key lookups try GUESSWHO_<P>_API_KEY then <P>_API_KEY

package config

import (
	"os"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv replaces ${VAR} with os.Getenv(VAR). Unset vars become "".
func expandEnv(s string) string {
	if s == "" {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// KeyEnvVars returns the environment variables consulted for provider's
// key, in priority order.
func KeyEnvVars(provider string) []string {
	p := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(provider))
	return []string{
		"GUESSWHO_" + p + "_API_KEY",
		p + "_API_KEY",
	}
}

func keyFromEnv(provider string) string {
	for _, env := range KeyEnvVars(provider) {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}
