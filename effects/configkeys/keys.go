package configkeys

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigEffectPrefix = ConfigPrefix + delimiter + "effect"

	ConfigEffectLogPrefix = ConfigEffectPrefix + delimiter + "log"

	ConfigEffectLogHandlerPrefix     = ConfigEffectLogPrefix + delimiter + "handler"
	ConfigEffectLogHandlerBufferSize = ConfigEffectLogHandlerPrefix + delimiter + "buffer_size"

	ConfigEffectTaskPrefix = ConfigEffectPrefix + delimiter + "task"

	ConfigEffectTaskHandlerPrefix     = ConfigEffectTaskPrefix + delimiter + "handler"
	ConfigEffectTaskHandlerBufferSize = ConfigEffectTaskHandlerPrefix + delimiter + "buffer_size"
	ConfigEffectTaskHandlerNumWorkers = ConfigEffectTaskHandlerPrefix + delimiter + "num_workers"

	ConfigEffectFilePrefix = ConfigEffectPrefix + delimiter + "file"

	ConfigEffectFileHandlerPrefix        = ConfigEffectFilePrefix + delimiter + "handler"
	ConfigEffectFileHandlerBufferSize    = ConfigEffectFileHandlerPrefix + delimiter + "buffer_size"
	ConfigEffectFileHandlerNumWorkers    = ConfigEffectFileHandlerPrefix + delimiter + "num_workers"
	ConfigEffectFileHandlerWriteAttempts = ConfigEffectFileHandlerPrefix + delimiter + "write_attempts"

	ConfigAggregatorPrefix = ConfigPrefix + delimiter + "aggregator"

	ConfigAggregatorFetchDelay       = ConfigAggregatorPrefix + delimiter + "fetch_delay"
	configAggregatorFetchDelayPrefix = ConfigAggregatorFetchDelay + delimiter
)

// FetchDelayOf is the key of the simulated fetch latency for a single path.
// It takes precedence over ConfigAggregatorFetchDelay.
func FetchDelayOf(path string) string {
	return configAggregatorFetchDelayPrefix + path
}
