// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("ebird.apikey", "")
	v.SetDefault("ebird.apikeyfile", "")
	v.SetDefault("ebird.baseurl", "https://api.ebird.org/v2")
	v.SetDefault("ebird.timeout", 30*time.Second)
	v.SetDefault("ebird.cachettl", 15*time.Minute)
	v.SetDefault("ebird.referencecachettl", 24*time.Hour)
	v.SetDefault("ebird.ratelimitms", 100)
	v.SetDefault("ebird.debug", false)

	v.SetDefault("search.radiuskm", 15.0)
	v.SetDefault("search.maxradiuskm", 50.0)
	v.SetDefault("search.lookbackdays", 30)
	v.SetDefault("search.maxlookbackdays", 30)
	v.SetDefault("search.spacingmiles", 20.0)
	v.SetDefault("search.maxpoints", 400)
	v.SetDefault("search.topn", 10)
	v.SetDefault("search.listmode", "all")
	v.SetDefault("search.regionmaxresults", 10000)
	v.SetDefault("search.referenceregion", "")
	v.SetDefault("search.strides.snapshotpoint", 1)
	v.SetDefault("search.strides.snapshotbox", 5)
	v.SetDefault("search.strides.snapshotpath", 3)
	v.SetDefault("search.strides.hotspotpoint", 1)
	v.SetDefault("search.strides.hotspotbox", 3)
	v.SetDefault("search.strides.hotspotpath", 2)

	v.SetDefault("targets.expected", 30.0)
	v.SetDefault("targets.uncommon", 10.0)
	v.SetDefault("targets.notable", 1.0)

	v.SetDefault("routing.provider", "osrm")
	v.SetDefault("routing.baseurl", "https://router.project-osrm.org")
	v.SetDefault("routing.profile", "driving")
	v.SetDefault("routing.timeout", 20*time.Second)
	v.SetDefault("routing.stepkm", 5.0)

	v.SetDefault("datastore.type", "sqlite")
	v.SetDefault("datastore.sqlite.path", "birdscout.db")
	v.SetDefault("datastore.mysql.host", "localhost")
	v.SetDefault("datastore.mysql.port", "3306")
	v.SetDefault("datastore.mysql.username", "")
	v.SetDefault("datastore.mysql.password", "")
	v.SetDefault("datastore.mysql.passwordfile", "")
	v.SetDefault("datastore.mysql.database", "birdscout")
	v.SetDefault("datastore.slowquerythreshold", 500*time.Millisecond)

	v.SetDefault("webserver.enabled", true)
	v.SetDefault("webserver.listen", "localhost:8080")
	v.SetDefault("webserver.metrics", true)
	v.SetDefault("webserver.shutdowntimeout", 10*time.Second)

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/birdscout.log")
	v.SetDefault("logging.fileoutput.level", "info")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.debug", false)
}
