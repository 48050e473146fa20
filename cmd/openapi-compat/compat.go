package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type operation struct {
	Responses map[string]struct{}
	Secured   bool
	Required  map[string]struct{}
}

type apiDoc struct {
	Paths map[string]map[string]operation
}

// parseDoc reads a swagger document. JSON is valid YAML, so both load here.
func parseDoc(raw []byte) (apiDoc, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return apiDoc{}, err
	}

	paths, ok := doc["paths"].(map[string]any)
	if !ok {
		return apiDoc{}, errors.New("missing or malformed top-level paths field")
	}

	out := apiDoc{Paths: make(map[string]map[string]operation, len(paths))}
	for path, entry := range paths {
		methods, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		ops := make(map[string]operation)
		for method, body := range methods {
			method = strings.ToLower(strings.TrimSpace(method))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			fields, ok := body.(map[string]any)
			if !ok {
				continue
			}
			ops[method] = parseOperation(fields)
		}
		if len(ops) > 0 {
			out.Paths[path] = ops
		}
	}
	return out, nil
}

func parseOperation(fields map[string]any) operation {
	op := operation{
		Responses: make(map[string]struct{}),
		Required:  make(map[string]struct{}),
	}
	if responses, ok := fields["responses"].(map[string]any); ok {
		for code := range responses {
			if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
				op.Responses[code] = struct{}{}
			}
		}
	}
	if security, ok := fields["security"].([]any); ok && len(security) > 0 {
		op.Secured = true
	}
	if params, ok := fields["parameters"].([]any); ok {
		for _, p := range params {
			param, ok := p.(map[string]any)
			if !ok {
				continue
			}
			if required, _ := param["required"].(bool); required {
				name, _ := param["name"].(string)
				in, _ := param["in"].(string)
				op.Required[in+":"+name] = struct{}{}
			}
		}
	}
	return op
}

// compare lists changes in revision that break clients written against base.
func compare(base, revision apiDoc) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			label := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, "removed operation: "+label)
				continue
			}

			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", label, strings.ToUpper(code)))
				}
			}
			if revOp.Secured && !baseOp.Secured {
				issues = append(issues, "now requires authentication: "+label)
			}
			for param := range revOp.Required {
				if _, ok := baseOp.Required[param]; !ok {
					issues = append(issues, fmt.Sprintf("new required parameter: %s -> %s", label, param))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
