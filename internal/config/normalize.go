package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

// Normalize canonicalizes enumerated and path-shaped fields prior to default
// application. It mutates the descriptor in-place and returns a result
// describing any coercions.
func Normalize(d *Descriptor) *NormalizationResult {
	res := &NormalizationResult{}
	if d == nil {
		return res
	}

	normalizeBasePath(d, res)
	normalizeLogging(&d.Logging, res)
	normalizeChecks(d.Checks, res)
	normalizeLinkCheck(d.LinkCheck, res)

	for i := range d.Nav {
		d.Nav[i].Text = strings.TrimSpace(d.Nav[i].Text)
		d.Nav[i].Link = strings.TrimSpace(d.Nav[i].Link)
	}
	d.Repo = strings.TrimSpace(d.Repo)
	d.DocsBranch = strings.TrimSpace(d.DocsBranch)

	return res
}

// normalizeBasePath forces leading and trailing slashes so route joining is
// uniform downstream.
func normalizeBasePath(d *Descriptor, res *NormalizationResult) {
	raw := strings.TrimSpace(d.BasePath)
	if raw == "" {
		return // default applied later
	}
	canonical := raw
	if !strings.HasPrefix(canonical, "/") {
		canonical = "/" + canonical
	}
	if !strings.HasSuffix(canonical, "/") {
		canonical += "/"
	}
	if canonical != d.BasePath {
		res.Warnings = append(res.Warnings, warnChanged("base_path", d.BasePath, canonical))
		d.BasePath = canonical
	}
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if strings.TrimSpace(string(l.Level)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}

	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	} else if strings.TrimSpace(string(l.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func normalizeChecks(c *ChecksConfig, res *NormalizationResult) {
	if c == nil {
		return
	}
	if f := NormalizeCheckFormat(string(c.Format)); f != "" {
		if c.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("checks.format", c.Format, f))
			c.Format = f
		}
	} else if strings.TrimSpace(string(c.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("checks.format", string(c.Format), string(CheckFormatText)))
		c.Format = CheckFormatText
	}
}

func normalizeLinkCheck(lc *LinkCheckConfig, res *NormalizationResult) {
	if lc == nil {
		return
	}
	if lc.MaxConcurrent < 0 {
		res.Warnings = append(res.Warnings, warnChanged("linkcheck.max_concurrent", lc.MaxConcurrent, 0))
		lc.MaxConcurrent = 0
	}
	if lc.MaxRedirects < 0 {
		res.Warnings = append(res.Warnings, warnChanged("linkcheck.max_redirects", lc.MaxRedirects, 0))
		lc.MaxRedirects = 0
	}
}

func warnChanged(field string, from, to interface{}) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
