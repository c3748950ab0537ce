package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/warpconf/pkg/errors"
)

// Codec names a file encoding
type Codec string

const (
	CodecTOML Codec = "toml"
	CodecYAML Codec = "yaml"
	CodecJSON Codec = "json"
)

// CodecFor picks the codec for a file name by extension
func CodecFor(path string) (Codec, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return CodecTOML, true
	case ".yaml", ".yml":
		return CodecYAML, true
	case ".json":
		return CodecJSON, true
	default:
		return "", false
	}
}

// Load reads a configuration file, substitutes environment variables and
// decodes it into out.
func Load(fs afero.Fs, filePath string, out interface{}) error {
	codec, ok := CodecFor(filePath)
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported config file extension: %s", filePath)
	}

	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to read config file").
			WithDetail("path", filePath)
	}

	return Decode(codec, []byte(substituteEnvVars(string(data))), out, filePath)
}

// Decode decodes data with codec. name is only used in error messages.
func Decode(codec Codec, data []byte, out interface{}, name string) error {
	var err error
	switch codec {
	case CodecTOML:
		err = toml.Unmarshal(data, out)
	case CodecYAML:
		err = yaml.Unmarshal(data, out)
	case CodecJSON:
		// numbers stay json.Number so integers do not become floats
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(out)
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown codec %q", codec)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse "+strings.ToUpper(string(codec))).
			WithDetail("path", name)
	}
	return nil
}

// Save encodes v by the file extension and writes it, creating parent
// directories as needed.
func Save(fs afero.Fs, filePath string, v interface{}) error {
	codec, ok := CodecFor(filePath)
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported config file extension: %s", filePath)
	}

	var (
		data []byte
		err  error
	)
	switch codec {
	case CodecTOML:
		data, err = toml.Marshal(v)
	case CodecYAML:
		data, err = yaml.Marshal(v)
	case CodecJSON:
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal "+strings.ToUpper(string(codec)))
	}

	if err := fs.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to create config dir").
			WithDetail("path", filePath)
	}
	if err := afero.WriteFile(fs, filePath, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").
			WithDetail("path", filePath)
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
// Substituted text is not rescanned.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(os.Getenv(content[start+2 : end]))
		content = content[end+1:]
	}
	b.WriteString(content)
	return b.String()
}
