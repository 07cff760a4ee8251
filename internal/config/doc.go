// Package config loads the configuration shared by the converter, query and
// web binaries.
//
// Sources, in increasing order of precedence:
//
//	1. Defaults (Default)
//	2. A YAML file: $MILEX_CONFIG, else config.yaml or configs/config.yaml
//	3. Environment variables prefixed with MILEX_, optionally from .env
//
// Environment keys follow the struct nesting, for example:
//
//	MILEX_SERVER_PORT=8080
//	MILEX_PATHS_DATA_DIR=/srv/milex/data
//	MILEX_DATA_END_YEAR=2022
//	MILEX_EXPORT_WORKERS=8
//	MILEX_LOGGING_LEVEL=debug
//
// Paths are resolved with Config.ResolvePaths, which is the only place file
// names such as year_<Y>.json are joined to directories.
package config
