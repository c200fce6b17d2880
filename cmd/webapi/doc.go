// Package main is a command-line front end for the Web API client.
//
// Usage:
//
//	# Call a method (token from WEBAPI_TOKEN)
//	webapi call chat.postMessage channel=C123 text=hello
//
//	# Upload a file
//	webapi call files.upload channels=C123 file=@report.pdf
//
//	# List methods of a family with their required arguments
//	webapi methods users
//
//	# Run a local stand-in for the API with /metrics
//	webapi serve-mock -addr :8080
//
// Configuration:
//   - Environment variables (WEBAPI_*, LOG_LEVEL, LOG_DEV)
//   - A TOML or YAML file given with -config
//
// Signals:
//   - SIGINT, SIGTERM: cancel the call or shut the mock server down
package main
