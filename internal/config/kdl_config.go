package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL parses a .hayroll.kdl file. Shape:
//
//	project {
//	    jobs 8
//	    inline #true
//	    binary "mylib"
//	}
//	whitelist {
//	    "MY_MACRO"
//	    "FEATURE_*"
//	}
func LoadKDL(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg := &Config{Jobs: DefaultJobs(), Tools: DefaultTools()}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "jobs":
					if v, ok := firstIntArg(cn); ok {
						cfg.Jobs = v
					}
				case "inline":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Inline = b
					}
				case "binary":
					if s, ok := firstStringArg(cn); ok {
						cfg.Binary = s
					}
				}
			}
		case "whitelist":
			cfg.Whitelist = append(cfg.Whitelist, collectStringArgs(n)...)
		case "tools":
			for _, cn := range n.Children {
				s, ok := firstStringArg(cn)
				if !ok {
					continue
				}
				switch nodeName(cn) {
				case "clang":
					cfg.Tools.ClangExe = s
				case "c2rust":
					cfg.Tools.C2RustExe = s
				case "reaper":
					cfg.Tools.ReaperExe = s
				case "merger":
					cfg.Tools.MergerExe = s
				case "cleaner":
					cfg.Tools.CleanerExe = s
				case "inliner":
					cfg.Tools.InlinerExe = s
				case "maki_dir":
					cfg.Tools.MakiDir = s
				}
			}
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
