// Package catalog is the static table of known API methods.
//
// Each method maps to a Descriptor naming its required and binary
// arguments. The table lives in methods.yaml, embedded at build time and
// parsed with goccy/go-yaml. Calls to names not in the table are still
// allowed; the catalog only adds argument checks and discovery.
package catalog
