package config

import (
	"bytes"
	"os"
	"text/template"
)

// ExpandEnv expands environment variables in YAML content using Go
// template syntax ({{.VAR_NAME}}) rather than $VAR, so literal dollar
// signs in endpoints, tokens and passwords pass through untouched.
//
// Examples:
//   - {{.CASEY_TOKEN}} → value of the CASEY_TOKEN environment variable
//   - {{.API_HOST}}:{{.API_PORT}} → both variables expanded
//
// Missing variables expand to the empty string; validation catches
// required fields left empty. Content without template syntax passes
// through unchanged.
func ExpandEnv(data []byte) []byte {
	tmpl, err := template.New("config").Option("missingkey=zero").Parse(string(data))
	if err != nil {
		return data
	}

	envMap := make(map[string]string)
	for _, env := range os.Environ() {
		if idx := bytes.IndexByte([]byte(env), '='); idx > 0 {
			envMap[env[:idx]] = env[idx+1:]
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envMap); err != nil {
		return data
	}
	return buf.Bytes()
}
