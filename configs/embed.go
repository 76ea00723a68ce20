// Package configs provides the embedded configuration template for
// swindex.
//
// The template is embedded at build time, so 'swindex config init' can
// create a commented starter file from any distribution of the binary.
// To change the template, edit config.example.yaml and rebuild.
package configs

import _ "embed"

// ConfigTemplate is the starter user configuration written by
// 'swindex config init'. It documents every setting; the active values
// match the built-in defaults.
//
//go:embed config.example.yaml
var ConfigTemplate string
