// Package main checks the API's swagger document for backward-incompatible changes.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"socialnet/docs"

	"gopkg.in/yaml.v3"
)

func main() {
	basePath := flag.String("base", "", "baseline swagger document (yaml or json)")
	revisionPath := flag.String("revision", "", "revision swagger document; defaults to the compiled-in docs")
	dumpPath := flag.String("dump", "", "write the compiled-in docs as yaml to this path and exit")
	flag.Parse()

	if *dumpPath != "" {
		if err := dump(*dumpPath); err != nil {
			fmt.Fprintf(os.Stderr, "dump failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> [-revision <path>] | -dump <path>")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base doc: %v\n", err)
		os.Exit(1)
	}

	var revision apiDoc
	if *revisionPath != "" {
		revision, err = loadFile(*revisionPath)
	} else {
		revision, err = parseDoc([]byte(docs.SwaggerInfo.ReadDoc()))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision doc: %v\n", err)
		os.Exit(1)
	}

	if issues := compare(base, revision); len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}
	fmt.Println("openapi compatibility check passed")
}

func loadFile(path string) (apiDoc, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return apiDoc{}, err
	}
	return parseDoc(raw)
}

func dump(path string) error {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(docs.SwaggerInfo.ReadDoc()), &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
