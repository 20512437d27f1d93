package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are applied; the rest are
// listed in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	StatsIntervalChanged bool

	// DatasetChanged is true when any dataset sizing, seed or seed file
	// changed. The new values apply to the next generated dataset.
	DatasetChanged bool

	SearchChanged bool
	ExportChanged bool

	// RestartRequired names changed keys that only take effect on restart.
	RestartRequired []string
}

// Changed reports whether anything differs.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.StatsIntervalChanged || d.DatasetChanged ||
		d.SearchChanged || d.ExportChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.StatsIntervalChanged = old.Server.StatsInterval != new.Server.StatsInterval
	d.DatasetChanged = old.Dataset != new.Dataset
	d.SearchChanged = old.Search != new.Search
	d.ExportChanged = old.Export != new.Export

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry.service_name")
	}
	return d
}
