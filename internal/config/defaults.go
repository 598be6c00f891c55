package config

// Descriptor-wide defaults. Applied after normalization so canonical values
// drive the defaulting decisions.
const (
	DefaultLocale     = "en-US"
	DefaultBasePath   = "/"
	DefaultDocsDir    = "docs"
	DefaultAssetsDir  = "public"
	DefaultOutputDir  = "dist"
	DefaultDocsBranch = "master"
	DefaultPort       = 8080
)

func applyDefaults(d *Descriptor) {
	if d.Locale == "" {
		d.Locale = DefaultLocale
	}
	if d.BasePath == "" {
		d.BasePath = DefaultBasePath
	}
	if d.DocsDir == "" {
		d.DocsDir = DefaultDocsDir
	}
	if d.AssetsDir == "" {
		d.AssetsDir = DefaultAssetsDir
	}
	if d.Output.Directory == "" {
		d.Output.Directory = DefaultOutputDir
	}
	if d.DocsBranch == "" {
		d.DocsBranch = DefaultDocsBranch
	}
	if d.Logging.Level == "" {
		d.Logging.Level = LogLevelInfo
	}
	if d.Logging.Format == "" {
		d.Logging.Format = LogFormatText
	}

	if d.Checks == nil {
		d.Checks = &ChecksConfig{}
	}
	if d.Checks.Format == "" {
		d.Checks.Format = CheckFormatText
	}

	if d.Preview == nil {
		d.Preview = &PreviewConfig{}
	}
	if d.Preview.Port == 0 {
		d.Preview.Port = DefaultPort
	}

	if d.History != nil && d.History.Enabled && d.History.Path == "" {
		d.History.Path = ".guidesite/history.db"
	}

	if lc := d.LinkCheck; lc != nil && lc.Enabled {
		if lc.MaxConcurrent == 0 {
			lc.MaxConcurrent = 10
		}
		if lc.RequestTimeout == "" {
			lc.RequestTimeout = "10s"
		}
		if lc.MaxRedirects == 0 {
			lc.MaxRedirects = 5
		}
		if lc.Subject == "" {
			lc.Subject = "guidesite.links.broken"
		}
		if lc.KVBucket == "" {
			lc.KVBucket = "guidesite-link-cache"
		}
		if lc.CacheTTL == "" {
			lc.CacheTTL = "24h"
		}
		if lc.CacheTTLFailures == "" {
			lc.CacheTTLFailures = "1h"
		}
	}
}
