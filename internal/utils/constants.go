package utils

const (
	ContentTypeHeader = "Content-Type"
	AcceptHeader      = "Accept"
	UserAgentHeader   = "User-Agent"
	RequestedWith     = "X-Requested-With"
)

const (
	JSONContentType        = "application/json"
	OctetStreamContentType = "application/octet-stream"
	XMLHttpRequest         = "XMLHttpRequest"
)

const (
	// Version lookups ask for the lean payload; search uses the default API version.
	GalleryAPIVersion = "application/json;api-version=7.2-preview.1;excludeUrls=true"
	UserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

const (
	PackageJSONPath = "extension/package.json"
	PackageNLSPath  = "extension/package.nls.json"
	VSIXExtension   = ".vsix"
)

const (
	QueryParam = "q"
)
