// Package openapi embeds the OpenAPI document of the product catalog API.
package openapi

import _ "embed"

// YAML is served on /openapi.yaml in the Development environment.
//
//go:embed openapi.yaml
var YAML []byte
