// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "ShowGrid-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "showgrid.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)
	viper.SetDefault("main.log.rotationday", time.Sunday)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "showgrid.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "showgrid")
	viper.SetDefault("output.mysql.password", "secret")
	viper.SetDefault("output.mysql.database", "showgrid")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("geocoding.enabled", true)
	viper.SetDefault("geocoding.endpoint", "https://nominatim.openstreetmap.org")
	viper.SetDefault("geocoding.email", "")
	viper.SetDefault("geocoding.timeout", 10*time.Second)
	viper.SetDefault("geocoding.cachettl", 24*time.Hour)

	viper.SetDefault("timezone.enabled", false)
	viper.SetDefault("timezone.endpoint", "https://timeapi.io/api/TimeZone/coordinate")
	viper.SetDefault("timezone.timeout", 10*time.Second)

	viper.SetDefault("import.debug", false)
	viper.SetDefault("import.timewindow", 2.0)
	viper.SetDefault("import.defaultcountry", "")
}
