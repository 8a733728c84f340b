package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Category is the CTF discipline a Challenge belongs to.
type Category string

const (
	CategoryReverse   Category = "rev"
	CategoryPwn       Category = "pwn"
	CategoryCrypto    Category = "crypto"
	CategoryMisc      Category = "misc"
	CategoryForensics Category = "forensics"
	CategoryWeb       Category = "web"
)

// categoryCode maps a Category to the three-letter code used in canonical
// challenge names (spec §6).
var categoryCode = map[Category]string{
	CategoryReverse:   "rev",
	CategoryPwn:       "pwn",
	CategoryCrypto:    "cry",
	CategoryMisc:      "msc",
	CategoryForensics: "for",
	CategoryWeb:       "web",
}

// ServerType describes how the model reaches the challenge's network service.
type ServerType string

const (
	ServerNone ServerType = ""
	ServerNC   ServerType = "nc"
	ServerWeb  ServerType = "web"
)

// Challenge is an immutable bundle describing a single CTF task. It is
// created once per run and never mutated.
type Challenge struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Points      int      `json:"points"`
	Description string   `json:"description"`
	Flag        string   `json:"flag"`

	Files []string `json:"files"`

	ServerType        ServerType `json:"server_type"`
	ServerHost        string     `json:"server_host"`
	ServerPort        int        `json:"server_port"`
	ServerDescription string     `json:"server_description"`

	ContainerImage string `json:"container_image"`
	Compose        bool   `json:"compose"`

	// FlagFormat is derived at load time: the flag with its {body} replaced
	// by {...}, safe to hand to the model.
	FlagFormat string `json:"-"`
}

type challengeJSON struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Initial     int    `json:"initial"`
	Description string `json:"description"`
	Flag        any    `json:"flag"`
	Files       []string `json:"files"`

	ContainerImage    string `json:"container_image"`
	InternalPort      int    `json:"internal_port"`
	ServerDescription string `json:"server_description"`
	Proto             string `json:"proto"`
	Compose           bool   `json:"compose"`
}

// flagRE extracts the {body} of a prefix{body} flag.
var flagRE = regexp.MustCompile(`^([^{]*)\{(.*)\}$`)

// canonicalNameRE is the invariant regex from spec §6/§8.
var canonicalNameRE = regexp.MustCompile(`^[0-9]{4}[qf]-(cry|for|msc|pwn|rev|web)-[a-z0-9_]+$`)

// LoadChallenge reads a challenge.json-shaped file. category is taken from
// the challenge's directory layout (two levels up from the file, matching
// the original dataset's <event>/<category>/<name>/challenge.json layout);
// callers that already know the category may override it after loading.
func LoadChallenge(path string, category Category) (*Challenge, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading challenge file: %w", err)
	}
	var cj challengeJSON
	if err := json.Unmarshal(raw, &cj); err != nil {
		return nil, fmt.Errorf("decoding challenge file: %w", err)
	}

	var flag string
	switch v := cj.Flag.(type) {
	case string:
		flag = v
	case map[string]any:
		if s, ok := v["content"].(string); ok {
			flag = s
		}
	}
	if flag == "" {
		return nil, fmt.Errorf("challenge %q has no flag", cj.Name)
	}

	points := cj.Points
	if points == 0 {
		points = cj.Initial
	}

	c := &Challenge{
		Name:              cj.Name,
		Category:          category,
		Points:            points,
		Description:       strings.NewReplacer("{box}", cj.ContainerImage, "{port}", fmt.Sprintf("%d", cj.InternalPort)).Replace(cj.Description),
		Flag:              flag,
		Files:             cj.Files,
		ContainerImage:    cj.ContainerImage,
		ServerHost:        cj.ContainerImage,
		ServerPort:        cj.InternalPort,
		ServerDescription: cj.ServerDescription,
		Compose:           cj.Compose,
	}
	c.ServerType = c.deriveServerType(cj.Proto)
	c.FlagFormat = deriveFlagFormat(flag)

	if c.FlagFormat == c.Flag {
		return nil, fmt.Errorf("challenge %q: derived flag_format equals the real flag", c.Name)
	}
	return c, nil
}

// deriveServerType implements the union of the dataset's historical
// category/proto rules (open question 1 in spec §9, decided in DESIGN.md):
// a challenge container with no explicit proto is "web" for the web/misc
// categories and "nc" otherwise; no container means no server.
func (c *Challenge) deriveServerType(proto string) ServerType {
	if c.ContainerImage == "" && !c.Compose {
		return ServerNone
	}
	if c.Category == CategoryWeb || (c.Category == CategoryMisc && proto != "nc") {
		return ServerWeb
	}
	return ServerNC
}

// deriveFlagFormat replaces a flag's {body} with {...}. A flag with no
// braces is returned unchanged (it is already safe to show).
func deriveFlagFormat(flag string) string {
	m := flagRE.FindStringSubmatch(flag)
	if m == nil {
		return flag
	}
	return m[1] + "{...}"
}

// GetServerDescription renders the human-readable blurb interpolated into
// prompt templates as {prompter.server_description}.
func (c *Challenge) GetServerDescription() string {
	if c.ServerDescription != "" {
		return c.ServerDescription
	}
	switch c.ServerType {
	case ServerWeb:
		return fmt.Sprintf("The challenge web server is running on `%s` port `%d` and you can access it from within the container environment using `curl http://%s:%d`.\n\n", c.ServerHost, c.ServerPort, c.ServerHost, c.ServerPort)
	case ServerNC:
		return fmt.Sprintf("The challenge server is running on `%s` port `%d` and you can access it from within the container environment using `nc %s %d`.\n\n", c.ServerHost, c.ServerPort, c.ServerHost, c.ServerPort)
	default:
		return ""
	}
}

// CanonicalName derives the "<year><q|f>-<cat3>-<safe-name>" identifier used
// for the run-log path (spec §6).
func CanonicalName(year int, isFinals bool, category Category, name string) (string, error) {
	code, ok := categoryCode[category]
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	event := "q"
	if isFinals {
		event = "f"
	}
	canon := fmt.Sprintf("%04d%s-%s-%s", year, event, code, safeName(name))
	if !canonicalNameRE.MatchString(canon) {
		return "", fmt.Errorf("derived canonical name %q does not match the required pattern", canon)
	}
	return canon, nil
}

var nonAlnumRunRE = regexp.MustCompile(`[^a-z0-9]+`)

// safeName lowercases and collapses non-alphanumeric runs to a single
// underscore, stripping trailing underscores.
func safeName(name string) string {
	s := nonAlnumRunRE.ReplaceAllString(strings.ToLower(name), "_")
	return strings.TrimRight(s, "_")
}

// RunLogPath builds the logs/<user>/<experiment>/<canonical-name>.json path.
func RunLogPath(logdir, user, experiment, canonicalName string) string {
	return filepath.Join(logdir, user, experiment, canonicalName+".json")
}
