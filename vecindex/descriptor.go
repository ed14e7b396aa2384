package vecindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/corpuskit/core"
)

// Artifact names inside an index directory.
const (
	MatrixName     = "embeddings.f32"
	MetaDirName    = "meta"
	DescriptorName = "index.json"
)

// Descriptor records how an index was built. Queries must use the same
// embedding model; anything else produces silently wrong similarities.
type Descriptor struct {
	Model        string   `json:"model"`
	VectorDim    int      `json:"vector_dim"`
	TotalRecords int      `json:"total_records"`
	Sources      []string `json:"sources"`
	CreatedAtUTC string   `json:"created_at_utc"`
}

func writeDescriptor(indexDir string, desc *Descriptor) error {
	payload, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(indexDir, DescriptorName), append(payload, '\n'), 0644)
}

// ReadDescriptor loads the descriptor of an index directory. A missing or
// unreadable descriptor means the index is incomplete.
func ReadDescriptor(indexDir string) (*Descriptor, error) {
	payload, err := os.ReadFile(filepath.Join(indexDir, DescriptorName))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DescriptorName, core.ErrIndexIncomplete)
	}
	var desc Descriptor
	if err := json.Unmarshal(payload, &desc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", DescriptorName, core.ErrIndexIncomplete)
	}
	if desc.VectorDim <= 0 || desc.TotalRecords <= 0 {
		return nil, fmt.Errorf("descriptor has invalid shape: %w", core.ErrIndexIncomplete)
	}
	return &desc, nil
}
