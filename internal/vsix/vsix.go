// Package vsix reads the manifest of a downloaded extension package.
package vsix

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vsxdl/internal/utils"
)

// Manifest is the subset of extension/package.json used to check a package.
type Manifest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Publisher   string `json:"publisher"`
}

func (m Manifest) ID() string {
	return fmt.Sprintf("%s.%s", m.Publisher, m.Name)
}

// Matches reports whether the manifest describes publisher.name at version.
// Publisher and name compare case-insensitively like the gallery does.
func (m Manifest) Matches(publisher, name, version string) bool {
	return strings.EqualFold(m.Publisher, publisher) &&
		strings.EqualFold(m.Name, name) &&
		m.Version == version
}

func Inspect(filePath string) (*Manifest, error) {
	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open .vsix file: %w", err)
	}
	defer reader.Close()

	packageJSON, err := readFile(&reader.Reader, utils.PackageJSONPath)
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(packageJSON, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	localize(&reader.Reader, &manifest)
	return &manifest, nil
}

func readFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name == name {
			rc, err := file.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", name, err)
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("%s not found in .vsix file", name)
}

// localize resolves "%key%" placeholders through package.nls.json.
func localize(reader *zip.Reader, manifest *Manifest) {
	if !strings.Contains(manifest.DisplayName, "%") && !strings.Contains(manifest.Description, "%") {
		return
	}

	nlsBytes, err := readFile(reader, utils.PackageNLSPath)
	if err != nil {
		return
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(nlsBytes, &raw); err != nil {
		return
	}

	nls := make(map[string]string)
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			nls[key] = v
		case map[string]interface{}:
			if msg, ok := v["message"].(string); ok {
				nls[key] = msg
			}
		}
	}

	if key := strings.Trim(manifest.DisplayName, "%"); nls[key] != "" {
		manifest.DisplayName = nls[key]
	}
	if key := strings.Trim(manifest.Description, "%"); nls[key] != "" {
		manifest.Description = nls[key]
	}
}
