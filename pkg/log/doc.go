/*
Package log provides structured logging built on zerolog: a global logger
configured once via Init, component-scoped child loggers via
WithComponent, and a handful of level helpers (Info, Debug, Warn, Error,
Fatal) for simple call sites.

Never log full public-key hashes, stored keys, or payload bytes — only a
component name and, where a log needs to identify a user, a hex-encoded
prefix via WithUserHash. The storage, registry, and nonce packages all
follow this rule.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	registryLog := log.WithComponent("registry")
	registryLog.Info().Msg("user registered")
*/
package log
