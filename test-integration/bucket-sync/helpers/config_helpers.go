package helpers

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"
)

// SourceDocument is the subset of a legacy source document used by the tests
type SourceDocument struct {
	Key                string           `json:"key"`
	Created            string           `json:"created"`
	Modified           string           `json:"modified"`
	Title              string           `json:"title"`
	OwnerID            string           `json:"ownerId"`
	Tags               []string         `json:"tags"`
	CommunityIDs       []string         `json:"communityIds"`
	SearchCycleSecs    int              `json:"searchCycle_secs"`
	ProcessingPipeline []map[string]any `json:"processingPipeline"`
}

// NewSourceDocument builds a valid source document for a bucket named after the key
func NewSourceDocument(key, title string, modified time.Time) SourceDocument {
	return SourceDocument{
		Key:             key,
		Created:         modified.Add(-time.Hour).UTC().Format(time.RFC3339),
		Modified:        modified.UTC().Format(time.RFC3339),
		Title:           title,
		OwnerID:         "owner-1",
		Tags:            []string{"integration"},
		CommunityIDs:    []string{"community-1"},
		SearchCycleSecs: 3600,
		ProcessingPipeline: []map[string]any{
			{"data_bucket": map[string]any{"full_name": "buckets" + key}},
		},
	}
}

// WriteSeedFile writes source documents for the memory source store
func WriteSeedFile(dir string, docs ...SourceDocument) string {
	data, err := json.MarshalIndent(docs, "", "  ")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())

	path := filepath.Join(dir, "sources.json")
	gomega.Expect(os.WriteFile(path, data, 0600)).To(gomega.Succeed())
	return path
}

// WriteConfigYAML writes a standalone configuration reading seeded sources
// and writing buckets to a sqlite file
func WriteConfigYAML(dir, seedFile, sqlitePath string) string {
	configContent := fmt.Sprintf(`leader:
  type: standalone
  initialDelay: 100ms

sources:
  type: memory
  seedFile: %s

target:
  type: sqlite
  sqlitePath: %s

sync:
  interval: 500ms
  initialDelay: 200ms

dataDir: %s
`, seedFile, sqlitePath, dir)

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(configContent), 0600)).To(gomega.Succeed())
	return path
}
