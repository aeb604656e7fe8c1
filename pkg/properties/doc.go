// Package properties is a layered configuration resolution engine.
//
// Settings are loaded from Java-style property files into a single flat map. Keys carry an
// optional uppercase environment prefix and an optional namespace:
//
//	db.host=localhost           # global default
//	PROD.db.host=db.internal    # PROD environment
//	PROD.ENVIRONMENTS=STAGING   # PROD falls back to STAGING before the global default
//	#include common.properties
//
// A lookup walks the search chain of the current environment ([env, fallbacks..., ""]) and
// returns the first exact hit. Hits are interpolated: {token} references are resolved against
// the same chain, {ENVIRONMENT} is replaced by the current environment and values wrapped in
// [[[...]]] are decoded with the obfuscation codec.
//
// After the files are loaded, process environment variables and -Dkey=value system
// properties are layered in as overrides under the current environment. Overrides on keys
// starting with "_" never print their values.
//
// A Manager is safe for concurrent use. It loads lazily on first access.
package properties
