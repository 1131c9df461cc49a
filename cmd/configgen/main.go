package main

import (
	"flag"
	"log"

	"github.com/danmuck/editorhost/internal/config"
)

func main() {
	kind := flag.String("kind", "host", "config kind: host|settings")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to the per-kind path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		switch *kind {
		case "host":
			if _, err := config.Load(path); err != nil {
				log.Fatal(err)
			}
		case "settings":
			if _, err := config.LoadSettings(path); err != nil {
				log.Fatal(err)
			}
		default:
			log.Fatalf("unknown kind: %s", *kind)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "host":
		return "cmd/editorhost/config.toml"
	case "settings":
		return "cmd/editorhost/editor_settings.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}
