package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nfrund/properly/internal/domain"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "Properly CLI v"+version+"\n", out)
}

func TestTopicsCommands(t *testing.T) {
	out, err := run(t, "topics", "list", "--channel", "chat-app")
	require.NoError(t, err)
	assert.Contains(t, out, "chat-app.new-message")

	out, err = run(t, "topics", "get", "chat-app.new-message", "--channel", "chat-app", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Module:      messenger")

	_, err = run(t, "topics", "get", "chat-app.typing", "--channel", "chat-app")
	assert.Error(t, err)

	_, err = run(t, "topics", "list", "--channel", "chat-app", "--scope", "galaxy")
	assert.Error(t, err)

	out, err = run(t, "topics", "validate", "chat-app.typing")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	_, err = run(t, "topics", "validate", "Bad Topic")
	assert.Error(t, err)
}

func TestWriteOrphans(t *testing.T) {
	var out bytes.Buffer
	writeOrphans(&out, nil)
	assert.Equal(t, "No orphaned attachment records found\n", out.String())

	id := surrealmodels.NewRecordID("attachment", "a1")
	created := surrealmodels.CustomDateTime{Time: time.Date(2024, 10, 30, 12, 0, 0, 0, time.UTC)}
	out.Reset()
	writeOrphans(&out, []domain.AttachmentRecord{{
		ID:        &id,
		CreatedAt: &created,
		Attachments: []domain.AttachmentDescriptor{
			{URL: "https://cdn/a.png"},
			{URL: "https://cdn/b.pdf"},
		},
	}})
	assert.Contains(t, out.String(), "2024-10-30T12:00:00Z")
	assert.Contains(t, out.String(), "https://cdn/a.png,https://cdn/b.pdf")
}

type stubAttachments struct {
	domain.AttachmentRepository
	olderThan time.Duration
	records   []domain.AttachmentRecord
	err       error
}

func (s *stubAttachments) FindUnreferenced(_ context.Context, olderThan time.Duration) ([]domain.AttachmentRecord, error) {
	s.olderThan = olderThan
	return s.records, s.err
}

func TestListOrphansNeedsOnlyTheAttachmentStore(t *testing.T) {
	id := surrealmodels.NewRecordID("attachment", "a1")
	store := &stubAttachments{records: []domain.AttachmentRecord{{
		ID:          &id,
		Attachments: []domain.AttachmentDescriptor{{URL: "https://cdn/a.png"}},
	}}}

	// No uploader, pub/sub or push dispatcher is provided.
	i := do.New()
	do.ProvideValue[domain.AttachmentRepository](i, store)

	var out bytes.Buffer
	require.NoError(t, listOrphans(context.Background(), i, 2*time.Hour, &out))
	assert.Equal(t, 2*time.Hour, store.olderThan)
	assert.Contains(t, out.String(), "attachment:a1")
	assert.Contains(t, out.String(), "https://cdn/a.png")

	store.err = errors.New("db down")
	err := listOrphans(context.Background(), i, time.Hour, &out)
	assert.ErrorContains(t, err, "db down")

	assert.Error(t, listOrphans(context.Background(), do.New(), time.Hour, &out), "missing store")
}
