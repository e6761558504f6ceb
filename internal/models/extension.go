package models

import (
	"fmt"
	"time"
)

const (
	StatisticInstall        = "install"
	StatisticWeightedRating = "weightedRating"

	AssetIconSmall    = "Microsoft.VisualStudio.Services.Icons.Small"
	AssetIconDefault  = "Microsoft.VisualStudio.Services.Icons.Default"
	AssetIconBranding = "Microsoft.VisualStudio.Services.Icons.Branding"
)

// Extension is one marketplace entry as returned by the gallery. Versions keep
// server order; the first one is the latest.
type Extension struct {
	ExtensionID      string      `json:"extensionId"`
	ExtensionName    string      `json:"extensionName"`
	DisplayName      string      `json:"displayName"`
	ShortDescription string      `json:"shortDescription"`
	Publisher        Publisher   `json:"publisher"`
	Versions         []Version   `json:"versions"`
	Statistics       []Statistic `json:"statistics,omitempty"`
}

type Publisher struct {
	PublisherID   string `json:"publisherId,omitempty"`
	PublisherName string `json:"publisherName"`
	DisplayName   string `json:"displayName"`
}

// Version is one published build. Several builds may share a version string and
// differ only by TargetPlatform; an empty TargetPlatform is a universal build.
type Version struct {
	Version        string    `json:"version"`
	LastUpdated    time.Time `json:"lastUpdated"`
	TargetPlatform string    `json:"targetPlatform,omitempty"`
	Files          []File    `json:"files,omitempty"`
}

type File struct {
	AssetType string `json:"assetType"`
	Source    string `json:"source"`
}

type Statistic struct {
	StatisticName string  `json:"statisticName"`
	Value         float64 `json:"value"`
}

// SearchResult is one page of a catalog search.
type SearchResult struct {
	Page       int
	TotalCount int
	Extensions []Extension
}

func (e Extension) ID() string {
	return fmt.Sprintf("%s.%s", e.Publisher.PublisherName, e.ExtensionName)
}

// Statistic returns the named statistic, or false when the gallery omitted it.
func (e Extension) Statistic(name string) (float64, bool) {
	for _, stat := range e.Statistics {
		if stat.StatisticName == name {
			return stat.Value, true
		}
	}
	return 0, false
}

// Latest returns the latest version record, if any.
func (e Extension) Latest() (Version, bool) {
	if len(e.Versions) == 0 {
		return Version{}, false
	}
	return e.Versions[0], true
}

// Platforms lists the distinct target platforms in server order.
func (e Extension) Platforms() []string {
	return DistinctPlatforms(e.Versions)
}

func (v Version) Asset(assetType string) (string, bool) {
	for _, file := range v.Files {
		if file.AssetType == assetType {
			return file.Source, true
		}
	}
	return "", false
}

func DistinctPlatforms(versions []Version) []string {
	seen := make(map[string]bool)
	var platforms []string
	for _, v := range versions {
		if v.TargetPlatform == "" || seen[v.TargetPlatform] {
			continue
		}
		seen[v.TargetPlatform] = true
		platforms = append(platforms, v.TargetPlatform)
	}
	return platforms
}

// BuildsOf returns every record published under the given version string,
// one per target platform.
func BuildsOf(versions []Version, version string) []Version {
	var builds []Version
	for _, v := range versions {
		if v.Version == version {
			builds = append(builds, v)
		}
	}
	return builds
}

// LatestBuilds returns every platform build of the latest release.
func LatestBuilds(versions []Version) []Version {
	if len(versions) == 0 {
		return nil
	}
	return BuildsOf(versions, versions[0].Version)
}
