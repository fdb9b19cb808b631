// Package openapi derives form definitions from OpenAPI request bodies using
// kin-openapi. Documents are read from files, an fs.FS or HTTP.
package openapi
