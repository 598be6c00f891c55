package site

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/guidesite/internal/check"
	"git.home.luguber.info/inful/guidesite/internal/content"
	"git.home.luguber.info/inful/guidesite/internal/logfields"
)

// stagePrepareOutput validates the docs root and lays out the staging
// directory skeleton.
func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	docsRoot := bs.Builder.DocsRoot()
	info, err := os.Stat(docsRoot)
	if err != nil {
		return newFatalStageError("prepare_output", fmt.Errorf("docs directory %s: %w", docsRoot, err))
	}
	if !info.IsDir() {
		return newFatalStageError("prepare_output", fmt.Errorf("docs path %s is not a directory", docsRoot))
	}
	return nil
}

// stageDiscover walks the docs tree and loads every document.
func stageDiscover(_ context.Context, bs *BuildState) error {
	tree, err := content.Discover(bs.Builder.DocsRoot())
	if err != nil {
		return newFatalStageError("discover", err)
	}
	if err := tree.LoadAll(); err != nil {
		return newFatalStageError("discover", err)
	}
	bs.Tree = tree
	bs.Report.Docs = len(tree.Documents())
	bs.Report.Assets = len(tree.Assets())
	slog.Debug("Discovered content tree",
		slog.Int("docs", bs.Report.Docs),
		slog.Int("assets", bs.Report.Assets))
	return nil
}

// stageVerifyStructure aborts the build when the structural checker finds
// errors; warnings are carried into the report.
func stageVerifyStructure(_ context.Context, bs *BuildState) error {
	checker := check.NewChecker(bs.Builder.desc.Checks)
	result, err := checker.Run(bs.Builder.desc, bs.Tree)
	if err != nil {
		return newFatalStageError("verify_structure", err)
	}
	if result.HasErrors() {
		return newFatalStageError("verify_structure",
			fmt.Errorf("site structure is inconsistent: %d errors", result.ErrorCount()))
	}
	if n := result.WarningCount(); n > 0 {
		return newWarnStageError("verify_structure", fmt.Errorf("%d structural warnings", n))
	}
	return nil
}

// stageRenderContent renders every markdown document to HTML under its
// route inside the staging directory.
func stageRenderContent(ctx context.Context, bs *BuildState) error {
	for _, doc := range bs.Tree.Documents() {
		select {
		case <-ctx.Done():
			return newCanceledStageError("render_content", ctx.Err())
		default:
		}

		page, err := bs.Builder.renderer.RenderDocument(bs.Tree, doc, RenderOptions{})
		if err != nil {
			return newFatalStageError("render_content", err)
		}

		outPath := filepath.Join(bs.Builder.stageDir, routeToFile(doc.Route()))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return newFatalStageError("render_content", err)
		}
		if err := os.WriteFile(outPath, page, 0o644); err != nil {
			return newFatalStageError("render_content", err)
		}
		bs.Report.RenderedPages++
	}
	return nil
}

// stageCopyAssets copies tree assets (preserving their relative paths) and
// the project-level assets directory into the staging root.
func stageCopyAssets(ctx context.Context, bs *BuildState) error {
	for _, asset := range bs.Tree.Assets() {
		select {
		case <-ctx.Done():
			return newCanceledStageError("copy_assets", ctx.Err())
		default:
		}
		dst := filepath.Join(bs.Builder.stageDir, filepath.FromSlash(asset.RelPath))
		if err := copyFile(asset.Path, dst); err != nil {
			return newFatalStageError("copy_assets", err)
		}
	}

	assetsDir := filepath.Join(bs.Builder.root, bs.Builder.desc.AssetsDir)
	if info, err := os.Stat(assetsDir); err == nil && info.IsDir() {
		if err := copyDir(assetsDir, bs.Builder.stageDir); err != nil {
			return newFatalStageError("copy_assets", err)
		}
	}
	return nil
}

// stageWriteConfig emits the generator configuration consumed by the
// rendered site and external tooling.
func stageWriteConfig(_ context.Context, bs *BuildState) error {
	if err := writeGeneratorConfig(bs); err != nil {
		return newFatalStageError("write_config", err)
	}
	return nil
}

// stageManifest writes the content manifest and records the tree hash for
// change detection between runs.
func stageManifest(_ context.Context, bs *BuildState) error {
	manifest, err := content.NewManifest(bs.Tree.All())
	if err != nil {
		return newFatalStageError("manifest", err)
	}
	data, err := manifest.ToJSON()
	if err != nil {
		return newFatalStageError("manifest", err)
	}
	path := filepath.Join(bs.Builder.stageDir, "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return newFatalStageError("manifest", err)
	}
	bs.Report.TreeHash = manifest.Hash
	slog.Debug("Wrote content manifest", logfields.Path(path), slog.String("hash", manifest.Hash))
	return nil
}

// routeToFile maps a published route to a file path relative to the
// output root.
func routeToFile(route string) string {
	if route == "/" {
		return "index.html"
	}
	if strings.HasSuffix(route, "/") {
		return filepath.FromSlash(strings.TrimPrefix(route, "/") + "index.html")
	}
	return filepath.FromSlash(strings.TrimPrefix(route, "/"))
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// copyDir copies the contents of src into dst.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}
