package dynamotools

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Single-table layout after Alex DeBrie's design: pk/sk plus a "type"
// discriminator, an inverted index (GSI1) and a by-type index (GSI2).
//
//go:embed tabledef/default-tabledef.json
var defaultTableDefinitionJSON []byte

// AttributeDefinition declares the type of a key attribute
type AttributeDefinition struct {
	AttributeName string `json:"AttributeName" yaml:"AttributeName"`
	AttributeType string `json:"AttributeType" yaml:"AttributeType"`
}

// KeySchemaElement is one HASH or RANGE key
type KeySchemaElement struct {
	AttributeName string `json:"AttributeName" yaml:"AttributeName"`
	KeyType       string `json:"KeyType" yaml:"KeyType"`
}

// ProvisionedThroughput is required when BillingMode is PROVISIONED
type ProvisionedThroughput struct {
	ReadCapacityUnits  int64 `json:"ReadCapacityUnits" yaml:"ReadCapacityUnits"`
	WriteCapacityUnits int64 `json:"WriteCapacityUnits" yaml:"WriteCapacityUnits"`
}

// Projection selects the attributes copied into an index
type Projection struct {
	ProjectionType   string   `json:"ProjectionType" yaml:"ProjectionType"`
	NonKeyAttributes []string `json:"NonKeyAttributes,omitempty" yaml:"NonKeyAttributes,omitempty"`
}

// SecondaryIndex describes a global or local secondary index
type SecondaryIndex struct {
	IndexName             string                 `json:"IndexName" yaml:"IndexName"`
	KeySchema             []KeySchemaElement     `json:"KeySchema" yaml:"KeySchema"`
	Projection            *Projection            `json:"Projection,omitempty" yaml:"Projection,omitempty"`
	ProvisionedThroughput *ProvisionedThroughput `json:"ProvisionedThroughput,omitempty" yaml:"ProvisionedThroughput,omitempty"`
}

// StreamSpecification enables a DynamoDB stream on the table
type StreamSpecification struct {
	StreamEnabled  bool   `json:"StreamEnabled" yaml:"StreamEnabled"`
	StreamViewType string `json:"StreamViewType,omitempty" yaml:"StreamViewType,omitempty"`
}

// Tag is a table tag
type Tag struct {
	Key   string `json:"Key" yaml:"Key"`
	Value string `json:"Value" yaml:"Value"`
}

// TableDefinition is a create-table template. Any string field may carry
// placeholder tokens; they are substituted on the JSON form before use.
type TableDefinition struct {
	TableName              string                 `json:"TableName" yaml:"TableName"`
	AttributeDefinitions   []AttributeDefinition  `json:"AttributeDefinitions" yaml:"AttributeDefinitions"`
	KeySchema              []KeySchemaElement     `json:"KeySchema" yaml:"KeySchema"`
	BillingMode            string                 `json:"BillingMode,omitempty" yaml:"BillingMode,omitempty"`
	ProvisionedThroughput  *ProvisionedThroughput `json:"ProvisionedThroughput,omitempty" yaml:"ProvisionedThroughput,omitempty"`
	GlobalSecondaryIndexes []SecondaryIndex       `json:"GlobalSecondaryIndexes,omitempty" yaml:"GlobalSecondaryIndexes,omitempty"`
	LocalSecondaryIndexes  []SecondaryIndex       `json:"LocalSecondaryIndexes,omitempty" yaml:"LocalSecondaryIndexes,omitempty"`
	StreamSpecification    *StreamSpecification   `json:"StreamSpecification,omitempty" yaml:"StreamSpecification,omitempty"`
	Tags                   []Tag                  `json:"Tags,omitempty" yaml:"Tags,omitempty"`
}

// DefaultTableDefinition returns a fresh copy of the built-in template with
// placeholders intact
func DefaultTableDefinition() TableDefinition {
	return mustParseTableDefinition(defaultTableDefinitionJSON)
}

func mustParseTableDefinition(data []byte) TableDefinition {
	def, err := ParseTableDefinition(data, FormatJSON)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in table definition: %v", err))
	}
	return def
}

// resolveTemplate serializes def to JSON, substitutes placeholders in the text
// and parses the result back
func resolveTemplate(def TableDefinition, replacements map[string]string) (TableDefinition, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return TableDefinition{}, fmt.Errorf("failed to serialize table definition: %w", err)
	}

	resolved := ReplacePlaceholders(string(raw), replacements)

	out, err := ParseTableDefinition([]byte(resolved), FormatJSON)
	if err != nil {
		return TableDefinition{}, fmt.Errorf("failed to parse resolved table definition: %w", err)
	}
	return out, nil
}

// Validate checks the definition for mistakes DynamoDB would reject
func (d TableDefinition) Validate() error {
	if d.TableName == "" {
		return fmt.Errorf("table definition has no TableName")
	}

	declared := make(map[string]string, len(d.AttributeDefinitions))
	for _, attr := range d.AttributeDefinitions {
		switch types.ScalarAttributeType(attr.AttributeType) {
		case types.ScalarAttributeTypeS, types.ScalarAttributeTypeN, types.ScalarAttributeTypeB:
		default:
			return fmt.Errorf("attribute %q has invalid type %q", attr.AttributeName, attr.AttributeType)
		}
		declared[attr.AttributeName] = attr.AttributeType
	}

	if err := validateKeySchema("table", d.KeySchema, declared); err != nil {
		return err
	}
	for _, idx := range d.GlobalSecondaryIndexes {
		if idx.IndexName == "" {
			return fmt.Errorf("global secondary index has no IndexName")
		}
		if err := validateKeySchema(idx.IndexName, idx.KeySchema, declared); err != nil {
			return err
		}
	}
	for _, idx := range d.LocalSecondaryIndexes {
		if idx.IndexName == "" {
			return fmt.Errorf("local secondary index has no IndexName")
		}
		if err := validateKeySchema(idx.IndexName, idx.KeySchema, declared); err != nil {
			return err
		}
	}

	if types.BillingMode(d.BillingMode) == types.BillingModeProvisioned && d.ProvisionedThroughput == nil {
		return fmt.Errorf("billing mode PROVISIONED requires ProvisionedThroughput")
	}

	return nil
}

func validateKeySchema(owner string, schema []KeySchemaElement, declared map[string]string) error {
	var hash, rng int
	for _, key := range schema {
		switch types.KeyType(key.KeyType) {
		case types.KeyTypeHash:
			hash++
		case types.KeyTypeRange:
			rng++
		default:
			return fmt.Errorf("%s: key %q has invalid key type %q", owner, key.AttributeName, key.KeyType)
		}
		if _, ok := declared[key.AttributeName]; !ok {
			return fmt.Errorf("%s: key %q is not declared in AttributeDefinitions", owner, key.AttributeName)
		}
	}
	if hash != 1 || rng > 1 {
		return fmt.Errorf("%s: key schema needs exactly one HASH key and at most one RANGE key", owner)
	}
	return nil
}

// CreateTableInput converts the definition to the SDK request
func (d TableDefinition) CreateTableInput() (*dynamodb.CreateTableInput, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	input := &dynamodb.CreateTableInput{
		TableName:             aws.String(d.TableName),
		KeySchema:             toKeySchema(d.KeySchema),
		ProvisionedThroughput: toThroughput(d.ProvisionedThroughput),
	}

	for _, attr := range d.AttributeDefinitions {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(attr.AttributeName),
			AttributeType: types.ScalarAttributeType(attr.AttributeType),
		})
	}

	if d.BillingMode != "" {
		input.BillingMode = types.BillingMode(d.BillingMode)
	}

	for _, idx := range d.GlobalSecondaryIndexes {
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:             aws.String(idx.IndexName),
			KeySchema:             toKeySchema(idx.KeySchema),
			Projection:            toProjection(idx.Projection),
			ProvisionedThroughput: toThroughput(idx.ProvisionedThroughput),
		})
	}

	for _, idx := range d.LocalSecondaryIndexes {
		input.LocalSecondaryIndexes = append(input.LocalSecondaryIndexes, types.LocalSecondaryIndex{
			IndexName:  aws.String(idx.IndexName),
			KeySchema:  toKeySchema(idx.KeySchema),
			Projection: toProjection(idx.Projection),
		})
	}

	if d.StreamSpecification != nil {
		input.StreamSpecification = &types.StreamSpecification{
			StreamEnabled: aws.Bool(d.StreamSpecification.StreamEnabled),
		}
		if d.StreamSpecification.StreamViewType != "" {
			input.StreamSpecification.StreamViewType = types.StreamViewType(d.StreamSpecification.StreamViewType)
		}
	}

	for _, tag := range d.Tags {
		input.Tags = append(input.Tags, types.Tag{
			Key:   aws.String(tag.Key),
			Value: aws.String(tag.Value),
		})
	}

	return input, nil
}

func toKeySchema(schema []KeySchemaElement) []types.KeySchemaElement {
	out := make([]types.KeySchemaElement, 0, len(schema))
	for _, key := range schema {
		out = append(out, types.KeySchemaElement{
			AttributeName: aws.String(key.AttributeName),
			KeyType:       types.KeyType(key.KeyType),
		})
	}
	return out
}

func toThroughput(pt *ProvisionedThroughput) *types.ProvisionedThroughput {
	if pt == nil {
		return nil
	}
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(pt.ReadCapacityUnits),
		WriteCapacityUnits: aws.Int64(pt.WriteCapacityUnits),
	}
}

func toProjection(p *Projection) *types.Projection {
	if p == nil {
		return &types.Projection{ProjectionType: types.ProjectionTypeAll}
	}
	out := &types.Projection{ProjectionType: types.ProjectionType(p.ProjectionType)}
	if len(p.NonKeyAttributes) > 0 {
		out.NonKeyAttributes = p.NonKeyAttributes
	}
	return out
}
