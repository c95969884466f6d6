package mcpserver

import (
	"encoding/json"
)

const (
	serverName   = "revamp"
	registryName = "io.github.panbanda/" + serverName
	repoURL      = "https://github.com/panbanda/" + serverName
	imageRepo    = "ghcr.io/panbanda/" + serverName
	schemaURL    = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
)

// Manifest is the registry entry published as server.json.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

// Repository points at the source of the published image.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
	ID     string `json:"id,omitempty"`
}

// Package is the container image that runs `revamp mcp` over stdio.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is passed to the image entrypoint.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport names the MCP transport, always stdio here.
type Transport struct {
	Type string `json:"type"`
}

func newManifest(version string) Manifest {
	if version == "" {
		version = "0.0.0"
	}
	return Manifest{
		Schema:      schemaURL,
		Name:        registryName,
		Description: "Legacy codebase assessment, migration planning and modernization artifacts",
		Version:     version,
		Repository:  &Repository{URL: repoURL, Source: "github"},
		Packages: []Package{{
			RegistryType:     "oci",
			Identifier:       imageRepo + ":" + version,
			PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
			Transport:        Transport{Type: "stdio"},
		}},
	}
}

// GenerateManifest renders server.json for version; an empty version
// publishes as 0.0.0.
func GenerateManifest(version string) ([]byte, error) {
	return json.MarshalIndent(newManifest(version), "", "  ")
}
