// Package processor prepares property files at build time.
//
// Includes flattens a tree of #include directives into one file, optionally obfuscating
// every literal value. Environments keeps only the lines inside #env ... #vne blocks that
// match a target environment:
//
//	#env DEV, TEST
//	db.host=localhost
//	#vne
//	#env ALL
//	app.name=Widget
//	#vne
//
// Export writes resolved values as YAML, TOML or JSON.
package processor
