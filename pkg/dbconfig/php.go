package dbconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// The artifact must stay loadable by the application's own PHP
// config loader: two-line preamble, a single return of a nested
// array, 4-space indent per level, one entry per line with a
// trailing comma, closing brackets aligned to the parent level.

const indentUnit = "    "

// renderArtifact serializes a Config into the autoload artifact.
func renderArtifact(cfg *Config) string {
	var b strings.Builder
	b.WriteString("<?php\n")
	b.WriteString("// Generated by the setup tool. Do not edit by hand.\n")
	b.WriteString("return [\n")
	b.WriteString(indentUnit + "'db' => [\n")

	if cfg.CMS != nil {
		b.WriteString(indentUnit + indentUnit + "'cms' => [\n")
		writeEntry(&b, 3, "database", cfg.CMS.Database)
		b.WriteString(indentUnit + indentUnit + "],\n")
	}
	if cfg.Site != nil {
		b.WriteString(indentUnit + indentUnit + "'site' => [\n")
		if cfg.Site.Hostname != "" {
			writeEntry(&b, 3, "hostname", cfg.Site.Hostname)
		}
		if cfg.Site.Port != 0 {
			b.WriteString(strings.Repeat(indentUnit, 3))
			b.WriteString(fmt.Sprintf("'port' => %d,\n", cfg.Site.Port))
		}
		if cfg.Site.Database != "" {
			writeEntry(&b, 3, "database", cfg.Site.Database)
		}
		if cfg.Site.Username != "" {
			writeEntry(&b, 3, "username", cfg.Site.Username)
		}
		if cfg.Site.Password != "" {
			writeEntry(&b, 3, "password", cfg.Site.Password)
		}
		b.WriteString(indentUnit + indentUnit + "],\n")
	}

	b.WriteString(indentUnit + "],\n")
	b.WriteString("];\n")
	return b.String()
}

func writeEntry(b *strings.Builder, depth int, key, value string) {
	b.WriteString(strings.Repeat(indentUnit, depth))
	b.WriteString(fmt.Sprintf("'%s' => '%s',\n", key, quote(value)))
}

// quote escapes a string for a single-quoted PHP literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func unquote(s string) string {
	s = strings.ReplaceAll(s, `\'`, `'`)
	return strings.ReplaceAll(s, `\\`, `\`)
}

// parseArtifact reads back the subset of syntax renderArtifact
// emits. It is deliberately not a general PHP parser.
func parseArtifact(src string) (*Config, error) {
	cfg := &Config{}
	var section string // "", "db", "cms", "site"

	for lineNo, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "" || line == "<?php" || strings.HasPrefix(line, "//"):
			continue
		case line == "return [":
			continue
		case line == "];" || line == "],":
			switch section {
			case "cms", "site":
				section = "db"
			case "db":
				section = ""
			}
			continue
		}

		key, value, isBlock, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}

		if isBlock {
			switch key {
			case "db", "cms", "site":
				section = key
				if key == "cms" {
					cfg.CMS = &CMSProfile{}
				}
				if key == "site" {
					cfg.Site = &SiteProfile{}
				}
			default:
				return nil, fmt.Errorf("line %d: unknown block %q", lineNo+1, key)
			}
			continue
		}

		switch section {
		case "cms":
			if key == "database" {
				cfg.CMS.Database = value
			}
		case "site":
			switch key {
			case "hostname":
				cfg.Site.Hostname = value
			case "port":
				port, err := strconv.Atoi(value)
				if err != nil {
					return nil, fmt.Errorf("line %d: port %q is not an integer", lineNo+1, value)
				}
				cfg.Site.Port = port
			case "database":
				cfg.Site.Database = value
			case "username":
				cfg.Site.Username = value
			case "password":
				cfg.Site.Password = value
			}
		default:
			return nil, fmt.Errorf("line %d: entry %q outside any profile", lineNo+1, key)
		}
	}

	return cfg, nil
}

// parseLine splits one `'key' => ...` line into its parts.
// isBlock is true for `'key' => [` lines; otherwise value carries
// the unquoted string or bare integer literal.
func parseLine(line string) (key, value string, isBlock bool, err error) {
	k, rest, found := strings.Cut(line, " => ")
	if !found {
		return "", "", false, fmt.Errorf("malformed entry %q", line)
	}
	k = strings.TrimSpace(k)
	if len(k) < 2 || k[0] != '\'' || k[len(k)-1] != '\'' {
		return "", "", false, fmt.Errorf("malformed key %q", k)
	}
	key = k[1 : len(k)-1]

	rest = strings.TrimSpace(rest)
	if rest == "[" {
		return key, "", true, nil
	}
	rest = strings.TrimSuffix(rest, ",")
	if len(rest) >= 2 && rest[0] == '\'' && rest[len(rest)-1] == '\'' {
		return key, unquote(rest[1 : len(rest)-1]), false, nil
	}
	if _, err := strconv.Atoi(rest); err == nil {
		return key, rest, false, nil
	}
	return "", "", false, fmt.Errorf("malformed value %q", rest)
}
