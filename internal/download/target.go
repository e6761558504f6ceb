// Package download resolves which package build should be fetched and
// fetches it.
package download

import (
	"fmt"
	"net/url"
	"strings"

	"vsxdl/internal/utils"
)

// DefaultPackageBase is the prefix of the public vspackage URLs.
const DefaultPackageBase = "https://marketplace.visualstudio.com/_apis/public/gallery"

// Target is the build the user is about to download. An empty TargetPlatform
// selects the universal build.
type Target struct {
	PublisherName  string
	ExtensionName  string
	Version        string
	TargetPlatform string
}

func (t Target) ID() string {
	return fmt.Sprintf("%s.%s", t.PublisherName, t.ExtensionName)
}

func (t Target) String() string {
	s := t.ID()
	if t.Version != "" {
		s += "@" + t.Version
	}
	if t.TargetPlatform != "" {
		s += " (" + t.TargetPlatform + ")"
	}
	return s
}

// FileName is the local name of the downloaded package.
func (t Target) FileName() string {
	name := fmt.Sprintf("%s-%s", t.ID(), t.Version)
	if t.TargetPlatform != "" {
		name += "@" + t.TargetPlatform
	}
	return utils.NewFileUtils().SafeFileName(name + utils.VSIXExtension)
}

// ValidationError reports a download attempted with an incomplete target.
type ValidationError struct {
	Target Target
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot download %s: missing %s", e.Target.ID(), strings.Join(e.Fields, ", "))
}

// Validate names every required field that is still empty.
func (t Target) Validate() error {
	var missing []string
	if strings.TrimSpace(t.PublisherName) == "" {
		missing = append(missing, "publisher")
	}
	if strings.TrimSpace(t.ExtensionName) == "" {
		missing = append(missing, "extension")
	}
	if strings.TrimSpace(t.Version) == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return &ValidationError{Target: t, Fields: missing}
	}
	return nil
}

// PackageURL builds the vspackage URL of t under base. Incomplete targets
// never produce a URL.
func PackageURL(base string, t Target) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if base == "" {
		base = DefaultPackageBase
	}

	u := fmt.Sprintf("%s/publishers/%s/vsextensions/%s/%s/vspackage",
		strings.TrimRight(base, "/"),
		url.PathEscape(t.PublisherName),
		url.PathEscape(t.ExtensionName),
		url.PathEscape(t.Version),
	)
	if t.TargetPlatform != "" {
		u += "?" + url.Values{"targetPlatform": {t.TargetPlatform}}.Encode()
	}
	return u, nil
}
