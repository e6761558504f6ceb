// Package marketplacetest runs an in-process stand-in for the gallery
// extensionquery and vspackage endpoints.
package marketplacetest

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"vsxdl/internal/models"
	"vsxdl/internal/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const QueryPath = "/_apis/public/gallery/extensionquery"

// Criterion mirrors one entry of a filter's criteria list.
type Criterion struct {
	FilterType int    `json:"filterType"`
	Value      string `json:"value"`
}

type Filter struct {
	Criteria   []Criterion `json:"criteria"`
	Direction  int         `json:"direction"`
	PageSize   int         `json:"pageSize"`
	PageNumber int         `json:"pageNumber"`
	SortBy     int         `json:"sortBy"`
	SortOrder  int         `json:"sortOrder"`
}

// Query is a decoded extensionquery request body.
type Query struct {
	AssetTypes []string `json:"assetTypes"`
	Filters    []Filter `json:"filters"`
	Flags      int      `json:"flags"`
	Accept     string   `json:"-"`
}

// Value returns the first criterion value with the given filter type.
func (q Query) Value(filterType int) (string, bool) {
	if len(q.Filters) == 0 {
		return "", false
	}
	for _, c := range q.Filters[0].Criteria {
		if c.FilterType == filterType {
			return c.Value, true
		}
	}
	return "", false
}

type Server struct {
	*httptest.Server
	router *mux.Router

	mu         sync.Mutex
	extensions []models.Extension
	queries    []Query
	downloads  []string
	failStatus int
	rawBody    string
}

func New(extensions ...models.Extension) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		extensions: extensions,
	}
	s.setupRoutes()
	s.Server = httptest.NewServer(s.router)
	return s
}

// Endpoint is the extensionquery URL.
func (s *Server) Endpoint() string {
	return s.URL + QueryPath
}

// PackageBase is the prefix the vspackage URLs hang off.
func (s *Server) PackageBase() string {
	return s.URL + "/_apis/public/gallery"
}

// FailWith makes every following request answer with status.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = status
}

// RespondWith makes every following query answer with body verbatim.
func (s *Server) RespondWith(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rawBody = body
}

func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus = 0
	s.rawBody = ""
}

func (s *Server) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}

// Downloads lists the request URIs of served packages.
func (s *Server) Downloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.downloads...)
}

func (s *Server) setupRoutes() {
	root := s.router.PathPrefix("/").Subrouter()

	root.HandleFunc(QueryPath, s.handleExtensionQuery).Methods("POST")
	root.HandleFunc("/_apis/public/gallery/publishers/{publisher}/vsextensions/{name}/{version}/vspackage", s.handlePackage).Methods("GET")

	s.router.Use(s.failureMiddleware)
}

func (s *Server) failureMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failStatus
		s.mu.Unlock()

		if status != 0 {
			s.writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleExtensionQuery(w http.ResponseWriter, r *http.Request) {
	var query Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	query.Accept = r.Header.Get(utils.AcceptHeader)

	s.mu.Lock()
	s.queries = append(s.queries, query)
	rawBody := s.rawBody
	s.mu.Unlock()

	if rawBody != "" {
		w.Header().Set(utils.ContentTypeHeader, utils.JSONContentType)
		w.Write([]byte(rawBody))
		return
	}

	var matched []models.Extension
	if id, ok := query.Value(7); ok {
		if ext, found := s.byID(id); found {
			matched = []models.Extension{ext}
		}
	} else {
		text, _ := query.Value(10)
		matched = s.search(text)
	}

	page, size := 1, 15
	if len(query.Filters) > 0 {
		if query.Filters[0].PageNumber > 0 {
			page = query.Filters[0].PageNumber
		}
		if query.Filters[0].PageSize > 0 {
			size = query.Filters[0].PageSize
		}
	}

	total := len(matched)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	response := map[string]interface{}{
		"results": []map[string]interface{}{
			{
				"extensions": matched[start:end],
				"resultMetadata": []map[string]interface{}{
					{
						"metadataType": "ResultCount",
						"metadataItems": []map[string]interface{}{
							{"name": "TotalCount", "count": total},
						},
					},
				},
			},
		},
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	publisher, name, version := vars["publisher"], vars["name"], vars["version"]
	platform := r.URL.Query().Get("targetPlatform")

	ext, found := s.byID(publisher + "." + name)
	if !found || !hasBuild(ext, version, platform) {
		s.writeError(w, http.StatusNotFound, "Extension not found")
		return
	}

	s.mu.Lock()
	s.downloads = append(s.downloads, r.URL.RequestURI())
	s.mu.Unlock()

	pkg, err := BuildVSIX(publisher, name, version, ext.DisplayName)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set(utils.ContentTypeHeader, utils.OctetStreamContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.%s-%s.vsix\"", publisher, name, version))
	w.Write(pkg)
}

func hasBuild(ext models.Extension, version, platform string) bool {
	for _, v := range ext.Versions {
		if v.Version == version && (platform == "" || v.TargetPlatform == platform) {
			return true
		}
	}
	return false
}

func (s *Server) byID(id string) (models.Extension, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ext := range s.extensions {
		if strings.EqualFold(ext.ID(), id) {
			return ext, true
		}
	}
	return models.Extension{}, false
}

func (s *Server) search(text string) []models.Extension {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(text)
	var matched []models.Extension
	for _, ext := range s.extensions {
		haystack := strings.ToLower(strings.Join([]string{
			ext.ExtensionName, ext.DisplayName, ext.ShortDescription, ext.Publisher.PublisherName,
		}, " "))
		if strings.Contains(haystack, needle) {
			matched = append(matched, ext)
		}
	}
	return matched
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set(utils.ContentTypeHeader, utils.JSONContentType)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
		"status":  status,
	})
}

// Extension builds a catalog entry. Versions default to a single universal
// 1.0.0 build.
func Extension(publisher, name string, versions ...models.Version) models.Extension {
	if len(versions) == 0 {
		versions = []models.Version{{Version: "1.0.0", LastUpdated: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}}
	}
	return models.Extension{
		ExtensionID:      uuid.NewString(),
		ExtensionName:    name,
		DisplayName:      strings.ToUpper(name[:1]) + name[1:],
		ShortDescription: fmt.Sprintf("%s by %s", name, publisher),
		Publisher: models.Publisher{
			PublisherID:   uuid.NewString(),
			PublisherName: publisher,
			DisplayName:   publisher,
		},
		Versions: versions,
		Statistics: []models.Statistic{
			{StatisticName: models.StatisticInstall, Value: 1500},
			{StatisticName: models.StatisticWeightedRating, Value: 4.2},
		},
	}
}

// Builds returns one record per platform, all sharing version.
func Builds(version string, released time.Time, platforms ...string) []models.Version {
	versions := make([]models.Version, 0, len(platforms))
	for _, p := range platforms {
		versions = append(versions, models.Version{Version: version, LastUpdated: released, TargetPlatform: p})
	}
	return versions
}

// Catalog returns n single-build extensions whose names all contain "ext".
func Catalog(publisher string, n int) []models.Extension {
	extensions := make([]models.Extension, 0, n)
	for i := 0; i < n; i++ {
		extensions = append(extensions, Extension(publisher, fmt.Sprintf("ext%03d", i)))
	}
	return extensions
}

// BuildVSIX returns a minimal package containing extension/package.json.
func BuildVSIX(publisher, name, version, displayName string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest, err := json.Marshal(map[string]string{
		"name":        name,
		"publisher":   publisher,
		"version":     version,
		"displayName": displayName,
		"description": "%description%",
	})
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{
		utils.PackageJSONPath: manifest,
		utils.PackageNLSPath:  []byte(`{"description": {"message": "Packaged by the test catalog"}}`),
	}
	for path, content := range files {
		f, err := zw.Create(path)
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(content); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
