package fillerstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, manifest string) string {
	t.Helper()
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func TestLoad_ReadsEntriesAndPCMAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "um_hindi.pcm"), []byte{0x01, 0x02, 0x03, 0x04}, 0o644))

	manifestPath := writeManifest(t, dir, `[
		{
			"id": "um_hindi_01",
			"file": "um_hindi.pcm",
			"languages": ["HINDI", "HINGLISH"],
			"principles": ["RECIPROCITY"],
			"profiles": ["ANALYTICAL"],
			"tone": "FRIENDLY",
			"effectiveness": 0.8,
			"duration_seconds": 0.6
		}
	]`)

	fillers, err := Load(manifestPath)
	require.NoError(t, err)
	require.Len(t, fillers, 1)

	f := fillers[0]
	assert.Equal(t, "um_hindi_01", f.ID)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, f.PCM)
	assert.Equal(t, 0.6, f.Duration)
	assert.True(t, f.Tags.HasLanguage("HINDI"))
	assert.True(t, f.Tags.HasPrinciple("RECIPROCITY"))
	assert.True(t, f.Tags.HasProfile("ANALYTICAL"))
	assert.Equal(t, 0.8, f.Tags.Effectiveness)
}

func TestLoad_MissingManifestFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoad_MissingAssetFails(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeManifest(t, dir, `[{"id":"x","file":"nope.pcm","languages":["ENGLISH"]}]`)

	_, err := Load(manifestPath)
	assert.Error(t, err)
}
