package conf

import (
	"fmt"
	"strings"
)

// ValidateSettings checks the loaded settings for configurations that cannot work.
func ValidateSettings(settings *Settings) error {
	var problems []string

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		problems = append(problems, "no database output enabled, enable either output.sqlite or output.mysql")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		problems = append(problems, "output.sqlite.path must not be empty")
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" {
			problems = append(problems, "output.mysql.host must not be empty")
		}
		if settings.Output.MySQL.Database == "" {
			problems = append(problems, "output.mysql.database must not be empty")
		}
	}
	if settings.Geocoding.Enabled && settings.Geocoding.Endpoint == "" {
		problems = append(problems, "geocoding.endpoint must not be empty when geocoding is enabled")
	}
	if settings.Timezone.Enabled && settings.Timezone.Endpoint == "" {
		problems = append(problems, "timezone.endpoint must not be empty when timezone lookup is enabled")
	}
	if settings.Import.TimeWindow < 0 {
		problems = append(problems, "import.timewindow must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
