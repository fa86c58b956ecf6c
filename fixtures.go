package dynamotools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a fixture or table definition document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func decode(data []byte, format Format, target any) error {
	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, target)
	case FormatJSON, "":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(target)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// ParseTableDefinition parses a JSON or YAML table definition
func ParseTableDefinition(data []byte, format Format) (TableDefinition, error) {
	var def TableDefinition
	if err := decode(data, format, &def); err != nil {
		return TableDefinition{}, fmt.Errorf("failed to parse table definition: %w", err)
	}
	return def, nil
}

// ParseCreateTableInput parses a JSON or YAML create-table request. Field
// names follow the DynamoDB API (TableName, KeySchema, SSESpecification and
// so on). The request is not validated; DynamoDB judges it as sent.
func ParseCreateTableInput(data []byte, format Format) (*dynamodb.CreateTableInput, error) {
	if format == FormatYAML {
		// SDK structs carry no yaml tags; go through JSON for the field names
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse create-table request: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert create-table request: %w", err)
		}
		data = converted
	}

	var input dynamodb.CreateTableInput
	if err := decode(data, FormatJSON, &input); err != nil {
		return nil, fmt.Errorf("failed to parse create-table request: %w", err)
	}
	return &input, nil
}

// LoadCreateTableInput reads a create-table request from r
func LoadCreateTableInput(r io.Reader, format Format) (*dynamodb.CreateTableInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read create-table request: %w", err)
	}
	return ParseCreateTableInput(data, format)
}

// LoadCreateTableInputFile reads a create-table request file, format by extension
func LoadCreateTableInputFile(path string) (*dynamodb.CreateTableInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read create-table request %s: %w", path, err)
	}
	return ParseCreateTableInput(data, FormatFromPath(path))
}

// LoadItems reads a fixture document: a JSON array or YAML sequence of plain
// objects. Each object is marshalled with attributevalue, so numbers become N,
// nested objects M and arrays L.
func LoadItems(r io.Reader, format Format) ([]Item, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewToolsError(ErrCodeFixture, "failed to read fixtures").WithCause(err)
	}

	var records []map[string]any
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &records)
	case FormatJSON, "":
		err = json.Unmarshal(data, &records)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, NewToolsError(ErrCodeFixture, "failed to parse fixtures").WithCause(err)
	}

	items, err := ItemsFromValues(records)
	if err != nil {
		return nil, NewToolsError(ErrCodeFixture, "failed to convert fixtures").WithCause(err)
	}
	return items, nil
}

// LoadItemsFile reads a fixture file, format by extension
func LoadItemsFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NewToolsError(ErrCodeFixture, "failed to open fixtures").WithCause(err)
	}
	defer f.Close()

	return LoadItems(f, FormatFromPath(path))
}
