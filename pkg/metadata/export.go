package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tagscraper/pkg/logger"
	"tagscraper/pkg/models"
)

// Exporter writes scrape results as timestamped JSON documents
type Exporter struct {
	directory string
	pretty    bool
	logger    logger.Logger
}

// NewExporter creates an exporter rooted at the given output directory
func NewExporter(directory string, pretty bool, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{directory: directory, pretty: pretty, logger: log}
}

// Write saves a hashtag document to {hashtag}_{timestamp}.json inside the
// output directory and returns the file path
func (e *Exporter) Write(doc *models.HashtagDocument) (string, error) {
	if err := os.MkdirAll(e.directory, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(e.directory, fmt.Sprintf("%s_%s.json", doc.Hashtag, timestamp))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	if e.pretty {
		encoder.SetIndent("", "  ")
	}
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	e.logger.InfoWithFields("document written", map[string]interface{}{
		"hashtag": doc.Hashtag,
		"posts":   doc.TotalPostsScraped,
		"path":    path,
	})

	return path, nil
}
