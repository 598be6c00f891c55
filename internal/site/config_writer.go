package site

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/guidesite/internal/logfields"
)

const generatorConfigFileName = "site-config.json"

// writeGeneratorConfig emits the resolved site configuration into the
// staging directory. The rendered pages are self-contained; this file is
// the machine-readable contract for deploy tooling and theme overrides.
func writeGeneratorConfig(bs *BuildState) error {
	desc := bs.Builder.desc

	nav := make([]map[string]string, 0, len(desc.Nav))
	for _, item := range bs.Builder.renderer.navItems(bs.Tree, nil) {
		nav = append(nav, map[string]string{"text": item.Text, "link": item.Href})
	}

	root := map[string]any{
		"locale":      desc.Locale,
		"title":       desc.Title,
		"description": desc.Description,
		"base":        desc.BasePath,
		"nav":         nav,
		"repo":        desc.Repo,
		"docs_branch": desc.DocsBranch,
		"build": map[string]any{
			"id":           bs.Report.BuildID,
			"generated_at": time.Now().UTC().Format(time.RFC3339),
			"docs":         bs.Report.Docs,
			"assets":       bs.Report.Assets,
		},
	}

	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal generator config: %w", err)
	}

	path := filepath.Join(bs.Builder.stageDir, generatorConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write generator config: %w", err)
	}
	slog.Debug("Wrote generator config", logfields.Path(path))
	return nil
}
