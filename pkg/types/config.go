package types

import "time"

// HTTPConfig holds the HTTP settings used by the availability check.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Headers are sent with every search request. Some library sites reject
	// requests that do not look like they come from a browser.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// DefaultHeaders returns the browser-like header set sent with search requests.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":                "Mozilla/5.0 (X11; Linux x86_64; rv:101.0) Gecko/20100101 Firefox/101.0",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.5",
		"Accept-Encoding":           "gzip, deflate, br",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Connection":                "keep-alive",
	}
}

// CheckConfig holds settings for the availability check stage.
type CheckConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestDelay is the minimum spacing between consecutive search
	// requests. Zero sends requests back to back.
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`
}

// LoaderConfig names the reading-list export columns and the shelf value
// that selects unread entries.
type LoaderConfig struct {
	TitleColumn  string `json:"title_column" yaml:"title_column"`
	AuthorColumn string `json:"author_column" yaml:"author_column"`
	ShelfColumn  string `json:"shelf_column" yaml:"shelf_column"`

	// UnreadShelf is the shelf value kept by the loader (Goodreads: "to-read").
	UnreadShelf string `json:"unread_shelf" yaml:"unread_shelf"`
}

// DefaultLoaderConfig matches the Goodreads library export.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		TitleColumn:  "Title",
		AuthorColumn: "Author",
		ShelfColumn:  "Exclusive Shelf",
		UnreadShelf:  "to-read",
	}
}

// WithDefaults fills empty fields from DefaultLoaderConfig.
func (c LoaderConfig) WithDefaults() LoaderConfig {
	d := DefaultLoaderConfig()
	if c.TitleColumn == "" {
		c.TitleColumn = d.TitleColumn
	}
	if c.AuthorColumn == "" {
		c.AuthorColumn = d.AuthorColumn
	}
	if c.ShelfColumn == "" {
		c.ShelfColumn = d.ShelfColumn
	}
	if c.UnreadShelf == "" {
		c.UnreadShelf = d.UnreadShelf
	}
	return c
}

// OutputFormat selects how the result table is written.
type OutputFormat string

const (
	OutputCSV    OutputFormat = "csv"
	OutputJSON   OutputFormat = "json"
	OutputYAML   OutputFormat = "yaml"
	OutputSQLite OutputFormat = "sqlite"
)

// Extension returns the file extension used for default output paths.
func (f OutputFormat) Extension() string {
	switch f {
	case OutputJSON:
		return ".json"
	case OutputYAML:
		return ".yaml"
	case OutputSQLite:
		return ".db"
	default:
		return ".csv"
	}
}

// RunConfig groups the stage configurations for one check run.
type RunConfig struct {
	InputPath     string       `json:"input_path" yaml:"input_path"`
	OutputPath    string       `json:"output_path" yaml:"output_path"`
	LibrariesPath string       `json:"libraries_path" yaml:"libraries_path"`
	Format        OutputFormat `json:"format" yaml:"format"`
	Debug         bool         `json:"debug" yaml:"debug"`
	Loader        LoaderConfig `json:"loader" yaml:"loader"`
	Check         CheckConfig  `json:"check" yaml:"check"`
}
