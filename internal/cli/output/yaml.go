// Package output provides output formatting for streamcoordctl.
package output

import "io"

// YAMLFormatter is the formatter selected for the yaml output format.
type YAMLFormatter struct{}

// Format writes nothing and returns nil; YAML encoding is not implemented.
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	// TODO: Use gopkg.in/yaml.v3 for YAML encoding
	return nil
}
