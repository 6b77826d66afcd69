package objstore

import (
	"testing"

	"github.com/recruitflow/recruitflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	cfg := config.NewDefault()
	s, err := NewMinioStore(cfg)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/resumes/org-1/file.pdf", s.PublicURL("org-1/file.pdf"))
}
