package i18n

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

const DefaultLocale = "en"

// Catalog resolves dotted message keys for one locale, falling back to the
// default locale and finally to the key itself.
type Catalog struct {
	locale   string
	messages map[string]string
	fallback map[string]string
}

func Load(locale string) (*Catalog, error) {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if locale == "" {
		locale = DefaultLocale
	}

	fallback, err := readLocale(DefaultLocale)
	if err != nil {
		return nil, err
	}
	if locale == DefaultLocale {
		return &Catalog{locale: locale, messages: fallback, fallback: fallback}, nil
	}

	messages, err := readLocale(locale)
	if err != nil {
		return nil, err
	}
	return &Catalog{locale: locale, messages: messages, fallback: fallback}, nil
}

func Locales() []string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Locale() string { return c.locale }

func (c *Catalog) Text(key string, args ...any) string {
	format, ok := c.messages[key]
	if !ok {
		format, ok = c.fallback[key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

func readLocale(locale string) (map[string]string, error) {
	raw, err := localeFS.ReadFile("locales/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown locale %q (available: %s)", locale, strings.Join(Locales(), ", "))
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	out := make(map[string]string)
	if err := flatten("", tree, out); err != nil {
		return nil, fmt.Errorf("locale %q: %w", locale, err)
	}
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("key %q: unsupported value %T", key, v)
		}
	}
	return nil
}
