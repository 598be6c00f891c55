package integration

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/guidesite/internal/config"
)

const exampleSite = "../../examples/guidelines"

// stageExampleSite copies the shipped example site into a temp directory so
// tests can build it without touching the checked-in tree, and loads its
// descriptor.
func stageExampleSite(t *testing.T) (string, *config.Descriptor) {
	t.Helper()

	root := t.TempDir()
	copyTree(t, exampleSite, root)

	desc, err := config.Load(filepath.Join(root, config.DefaultDescriptorPath))
	require.NoError(t, err)
	return root, desc
}

func copyTree(t *testing.T, src, dst string) {
	t.Helper()

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, in); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	})
	require.NoError(t, err)
}

// readOutput reads a file from the built output directory.
func readOutput(t *testing.T, root string, desc *config.Descriptor, parts ...string) string {
	t.Helper()

	path := filepath.Join(append([]string{root, desc.Output.Directory}, parts...)...)
	data, err := os.ReadFile(path)
	require.NoError(t, err, "expected output file %s", path)
	return string(data)
}
